// Package client is a small HTTP client for the directory API, used by the
// smoke test command.
package client

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"afa.directory/internal/directory"
)

// APIError is a non-2xx response.
type APIError struct {
	Status    int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("directory api: %d %s (request %s)", e.Status, e.Message, e.RequestID)
	}
	return fmt.Sprintf("directory api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

type loginBody struct {
	Token string `json:"token"`
}

// Client talks to one directory API base URL.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

func New(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Accept", "application/json").
		SetError(&errorBody{})
	rc.AddRetryCondition(retryable)
	return &Client{http: rc, logger: logger}
}

// retryable repeats reads only. A failed write may already have committed.
func retryable(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil {
		return false
	}
	switch r.Request.Method {
	case http.MethodGet, http.MethodHead:
	default:
		return false
	}
	return err != nil || r.StatusCode() >= http.StatusInternalServerError
}

func (c *Client) check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode(), Message: resp.Status()}
	if body, ok := resp.Error().(*errorBody); ok && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.RequestID = body.RequestID
	}
	c.logger.Debug("api error",
		zap.String("method", resp.Request.Method),
		zap.String("url", resp.Request.URL),
		zap.Int("status", apiErr.Status),
		zap.String("error", apiErr.Message),
	)
	return apiErr
}

// Login stores the session token for subsequent authenticated calls.
func (c *Client) Login(username, password string) error {
	var out loginBody
	resp, err := c.http.R().
		SetBody(map[string]string{"username": username, "password": password}).
		SetResult(&out).
		Post("/api/auth/login")
	if err := c.check(resp, err); err != nil {
		return err
	}
	c.http.SetAuthToken(out.Token)
	return nil
}

func (c *Client) CreateEmployee(in directory.EmployeeInput) (directory.EmployeeView, error) {
	var out directory.EmployeeView
	resp, err := c.http.R().SetBody(in).SetResult(&out).Post("/api/admin/employees")
	return out, c.check(resp, err)
}

func (c *Client) SetVisibility(id int64, visible int) (directory.EmployeeView, error) {
	var out directory.EmployeeView
	resp, err := c.http.R().
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetBody(map[string]int{"visible": visible}).
		SetResult(&out).
		Patch("/api/admin/employees/{id}/visibility")
	return out, c.check(resp, err)
}

func (c *Client) DeleteEmployee(id int64) error {
	resp, err := c.http.R().
		SetPathParam("id", strconv.FormatInt(id, 10)).
		Delete("/api/admin/employees/{id}")
	return c.check(resp, err)
}

// PublicDirectory reads the unauthenticated listing.
func (c *Client) PublicDirectory() ([]directory.EmployeeView, error) {
	var out []directory.EmployeeView
	resp, err := c.http.R().SetResult(&out).Get("/api/employees")
	return out, c.check(resp, err)
}

func (c *Client) PublicEmployee(id int64) (directory.EmployeeView, error) {
	var out directory.EmployeeView
	resp, err := c.http.R().
		SetPathParam("id", strconv.FormatInt(id, 10)).
		SetResult(&out).
		Get("/api/employees/{id}")
	return out, c.check(resp, err)
}

// Smoke runs the login, create, read, hide and delete round trip and
// returns the id of the employee it created and removed.
func (c *Client) Smoke(username, password, extension string) (int64, error) {
	if err := c.Login(username, password); err != nil {
		return 0, fmt.Errorf("login: %w", err)
	}
	created, err := c.CreateEmployee(directory.EmployeeInput{
		NameEN:    "Smoke Test",
		NameFA:    "آزمایش",
		Extension: extension,
	})
	if err != nil {
		return 0, fmt.Errorf("create employee: %w", err)
	}

	listing, err := c.PublicDirectory()
	if err != nil {
		return created.ID, fmt.Errorf("public directory: %w", err)
	}
	found := false
	for _, e := range listing {
		if e.ID == created.ID && e.Extension == extension && e.Visible == 1 {
			found = true
			break
		}
	}
	if !found {
		return created.ID, fmt.Errorf("employee %d missing from public directory", created.ID)
	}

	if _, err := c.SetVisibility(created.ID, 0); err != nil {
		return created.ID, fmt.Errorf("hide employee: %w", err)
	}
	if _, err := c.PublicEmployee(created.ID); !IsStatus(err, http.StatusNotFound) {
		return created.ID, fmt.Errorf("hidden employee still public: %v", err)
	}
	if err := c.DeleteEmployee(created.ID); err != nil {
		return created.ID, fmt.Errorf("delete employee: %w", err)
	}
	return created.ID, nil
}
