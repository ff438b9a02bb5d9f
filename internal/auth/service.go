package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"afa.directory/internal/audit"
)

// AccountStore loads administrator credentials.
type AccountStore interface {
	FindActiveAccount(ctx context.Context, username string) (Account, error)
}

// Recorder receives login activity.
type Recorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// Service verifies credentials and issues session tokens.
type Service struct {
	accounts AccountStore
	recorder Recorder
	now      func() time.Time

	tokenSecret []byte
	issuer      string
	accessTTL   time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithTokenSecret sets the HS256 signing secret.
func WithTokenSecret(secret string) ServiceOption {
	return func(s *Service) error {
		secret = strings.TrimSpace(secret)
		if secret == "" {
			return errMissingSecret
		}
		s.tokenSecret = []byte(secret)
		return nil
	}
}

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) ServiceOption {
	return func(s *Service) error {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			s.issuer = issuer
		}
		return nil
	}
}

// WithAccessTTL configures session token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.accessTTL = ttl
		}
		return nil
	}
}

// WithRecorder attaches the activity recorder used for LOGIN entries.
func WithRecorder(rec Recorder) ServiceOption {
	return func(s *Service) error {
		s.recorder = rec
		return nil
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// NewService constructs Service with optional configuration.
func NewService(accounts AccountStore, opts ...ServiceOption) (*Service, error) {
	svc := &Service{
		accounts:  accounts,
		now:       time.Now,
		issuer:    defaultIssuer,
		accessTTL: DefaultAccessTTL,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// Login verifies username and password against an active account and issues a token.
// Unknown usernames and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, fmt.Errorf("%w: username and password required", ErrInvalidInput)
	}
	if s.accounts == nil {
		return Session{}, errors.New("auth: account store unavailable")
	}

	acc, err := s.accounts.FindActiveAccount(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("find account: %w", err)
	}

	if !VerifyPassword(acc.PasswordHash, password) {
		s.recordLogin(ctx, acc, audit.StatusFailed)
		return Session{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.IssueToken(acc)
	if err != nil {
		return Session{}, err
	}
	s.recordLogin(ctx, acc, audit.StatusSuccess)

	acc.PasswordHash = ""
	return Session{Token: token, ExpiresAt: expiresAt, Account: acc}, nil
}

func (s *Service) recordLogin(ctx context.Context, acc Account, status string) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, audit.Entry{
		AdminID:       acc.ID,
		AdminUsername: acc.Username,
		ActionType:    audit.ActionLogin,
		EntityType:    audit.EntityAdmin,
		EntityID:      acc.ID,
		EntityName:    acc.Username,
		Description:   audit.DescribeLogin(acc.Username, status),
		Status:        status,
	})
}
