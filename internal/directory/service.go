package directory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"afa.directory/internal/audit"
	"afa.directory/internal/auth"
	"afa.directory/internal/obs"
)

// Service implements the administrative operations over companies, employees
// and admins plus the public directory projection. Every committed mutation is
// followed by one best-effort activity entry.
type Service struct {
	store        Store
	recorder     Recorder
	cache        ListingCache
	logger       *zap.Logger
	passwordCost int
}

// Option configures Service.
type Option func(*Service)

func WithRecorder(rec Recorder) Option {
	return func(s *Service) { s.recorder = rec }
}

func WithCache(cache ListingCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPasswordCost sets the bcrypt cost used for new admin accounts.
func WithPasswordCost(cost int) Option {
	return func(s *Service) { s.passwordCost = cost }
}

// NewService constructs a Service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		logger:       obs.Logger(),
		passwordCost: auth.DefaultPasswordCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) record(ctx context.Context, entry audit.Entry) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, entry)
}

func (s *Service) invalidateListing(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx)
}

func validID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}
