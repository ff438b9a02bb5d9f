package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"afa.directory/internal/audit"
	"afa.directory/internal/auth"
	"afa.directory/internal/directory"
	"afa.directory/internal/obs"
)

const (
	serviceName           = "afa-directory"
	defaultMaxBodyBytes   = 1 << 20
	defaultRequestTimeout = 15 * time.Second
	defaultLoginRate      = 1.0
	defaultLoginBurst     = 5
)

// Directory is the domain surface served over HTTP.
type Directory interface {
	ListCompanies(ctx context.Context) ([]directory.Company, error)
	GetCompany(ctx context.Context, id int64) (directory.Company, error)
	CreateCompany(ctx context.Context, in directory.CompanyInput) (directory.Company, error)
	UpdateCompany(ctx context.Context, id int64, in directory.CompanyInput) (directory.Company, error)
	DeleteCompany(ctx context.Context, id int64) error

	PublicDirectory(ctx context.Context) ([]directory.EmployeeView, error)
	PublicEmployee(ctx context.Context, id int64) (directory.EmployeeView, error)
	ListEmployees(ctx context.Context, companyID *int64) ([]directory.EmployeeView, error)
	GetEmployee(ctx context.Context, id int64) (directory.EmployeeView, error)
	CreateEmployee(ctx context.Context, in directory.EmployeeInput) (directory.EmployeeView, error)
	UpdateEmployee(ctx context.Context, id int64, in directory.EmployeeInput) (directory.EmployeeView, error)
	DeleteEmployee(ctx context.Context, id int64) error
	SetEmployeeFlag(ctx context.Context, id int64, t directory.Toggle, value int) (directory.EmployeeView, error)

	ListAdmins(ctx context.Context) ([]directory.Admin, error)
	GetAdmin(ctx context.Context, id int64) (directory.Admin, error)
	CreateAdmin(ctx context.Context, in directory.AdminInput) (directory.Admin, error)
	DeleteAdmin(ctx context.Context, actorID, id int64) error
}

// Authenticator logs administrators in and verifies their tokens.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (auth.Session, error)
	VerifyToken(token string) (auth.Claims, error)
}

// ActivityLog is the read side of the audit trail.
type ActivityLog interface {
	List(ctx context.Context, f audit.Filter) (audit.Page, error)
	TodayStats(ctx context.Context) (audit.DailyStats, error)
	Recent(ctx context.Context, n int) ([]audit.Entry, error)
}

type readinessChecker interface {
	Check(ctx context.Context) error
}

// ReadyProbe pings the database when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer.
type API struct {
	mux       *http.ServeMux
	directory Directory
	auth      Authenticator
	activity  ActivityLog
	validate  *validator.Validate
	logger    *zap.Logger

	readyProbe     readinessChecker
	version        string
	loginRate      float64
	loginBurst     int
	requestTimeout time.Duration
	maxBodyBytes   int64
	allowedOrigins []string
	trustedProxies TrustedProxies
}

// Option configures API.
type Option func(*API)

func WithReadyProbe(rp readinessChecker) Option {
	return func(a *API) {
		if rp != nil {
			a.readyProbe = rp
		}
	}
}

func WithVersion(v string) Option {
	return func(a *API) { a.version = v }
}

func WithLogger(l *zap.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithLoginRateLimit bounds login attempts per client IP.
func WithLoginRateLimit(perSecond float64, burst int) Option {
	return func(a *API) {
		if perSecond > 0 && burst > 0 {
			a.loginRate, a.loginBurst = perSecond, burst
		}
	}
}

// WithTrustedProxies honours X-Forwarded-For from the given peers.
func WithTrustedProxies(tp TrustedProxies) Option {
	return func(a *API) { a.trustedProxies = tp }
}

// WithRequestTimeout bounds every request's context.
func WithRequestTimeout(d time.Duration) Option {
	return func(a *API) {
		if d > 0 {
			a.requestTimeout = d
		}
	}
}

// WithAllowedOrigins lists CORS origins in addition to localhost.
func WithAllowedOrigins(origins []string) Option {
	return func(a *API) { a.allowedOrigins = origins }
}

func New(dir Directory, authn Authenticator, activity ActivityLog, opts ...Option) *API {
	a := &API{
		mux:            http.NewServeMux(),
		directory:      dir,
		auth:           authn,
		activity:       activity,
		validate:       newValidator(),
		logger:         obs.Logger(),
		readyProbe:     ReadyProbe{},
		loginRate:      defaultLoginRate,
		loginBurst:     defaultLoginBurst,
		requestTimeout: defaultRequestTimeout,
		maxBodyBytes:   defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.routes()
	return a
}

func (a *API) routes() {
	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.Handle("GET /metrics", obs.Handler())

	a.mux.Handle("POST /api/auth/login", RateLimit(http.HandlerFunc(a.handleLogin), a.loginBurst, a.loginRate))
	a.mux.HandleFunc("POST /api/auth/logout", a.handleLogout)
	a.mux.Handle("GET /api/auth/me", a.authenticated(a.handleMe))

	a.mux.Handle("GET /api/companies", a.authenticated(a.handleListCompanies))
	a.mux.Handle("GET /api/companies/{id}", a.authenticated(a.handleGetCompany))
	a.mux.Handle("POST /api/companies", a.superAdmin(a.handleCreateCompany))
	a.mux.Handle("PUT /api/companies/{id}", a.superAdmin(a.handleUpdateCompany))
	a.mux.Handle("DELETE /api/companies/{id}", a.superAdmin(a.handleDeleteCompany))

	a.mux.HandleFunc("GET /api/employees", a.handlePublicDirectory)
	a.mux.HandleFunc("GET /api/employees/{id}", a.handlePublicEmployee)
	a.mux.Handle("GET /api/admin/employees", a.authenticated(a.handleListEmployees))
	a.mux.Handle("POST /api/admin/employees", a.authenticated(a.handleCreateEmployee))
	a.mux.Handle("GET /api/admin/employees/{id}", a.authenticated(a.handleGetEmployee))
	a.mux.Handle("PUT /api/admin/employees/{id}", a.authenticated(a.handleUpdateEmployee))
	a.mux.Handle("DELETE /api/admin/employees/{id}", a.authenticated(a.handleDeleteEmployee))
	a.mux.Handle("PATCH /api/admin/employees/{id}/visibility", a.authenticated(a.handleToggle(directory.ToggleVisible)))
	a.mux.Handle("PATCH /api/admin/employees/{id}/toggle-mobile", a.authenticated(a.handleToggle(directory.ToggleShowMobile)))
	a.mux.Handle("PATCH /api/admin/employees/{id}/toggle-email", a.authenticated(a.handleToggle(directory.ToggleShowEmail)))

	a.mux.Handle("GET /api/admins", a.superAdmin(a.handleListAdmins))
	a.mux.Handle("POST /api/admins", a.superAdmin(a.handleCreateAdmin))
	a.mux.Handle("DELETE /api/admins/{id}", a.superAdmin(a.handleDeleteAdmin))

	a.mux.Handle("GET /api/activity-logs", a.authenticated(a.handleListActivity))
	a.mux.Handle("GET /api/activity-logs/stats/today", a.authenticated(a.handleTodayStats))
	a.mux.Handle("GET /api/activity-logs/recent/{limit}", a.authenticated(a.handleRecentActivity))

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not found")
	})
}

// Handler returns the mux wrapped in the middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = obs.Instrument(a.mux)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = Timeout(h, a.requestTimeout)
	h = CORS(h, a.allowedOrigins)
	h = SecurityHeaders(h)
	h = LoggingJSON(a.logger)(h)
	h = ClientIP(h, a.trustedProxies)
	return RequestID(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		a.logger.Warn("readiness check failed", zap.Error(err))
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errors.New("request body too large")
		}
		return errors.New("malformed JSON body")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// bind decodes and validates a request body, answering 400 itself on failure.
func (a *API) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

// pathID parses the {id} wildcard. Anything but a positive integer names no row.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// fail maps a domain error onto a status code. subject names the entity in 404 messages.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error, subject string) {
	switch {
	case errors.Is(err, directory.ErrSelfDelete):
		writeError(w, r, http.StatusBadRequest, "Cannot delete your own account")
	case errors.Is(err, directory.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, detail(err, directory.ErrInvalidInput))
	case errors.Is(err, audit.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, detail(err, audit.ErrInvalidInput))
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "Username and password required")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, directory.ErrNotFound), errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, subject+" not found")
	case errors.Is(err, directory.ErrConflict):
		writeError(w, r, http.StatusConflict, detail(err, directory.ErrConflict))
	case errors.Is(err, context.DeadlineExceeded):
		a.logger.Warn("request timed out", zap.String("request_id", RequestIDFromContext(r.Context())), zap.Error(err))
		writeError(w, r, http.StatusServiceUnavailable, "request timed out")
	default:
		a.logger.Error("request failed",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.String("method", r.Method),
			zap.String("route", obs.RouteLabel(r)),
			zap.Error(err),
		)
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// detail strips the sentinel prefix from a wrapped error message.
func detail(err, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return msg
}
