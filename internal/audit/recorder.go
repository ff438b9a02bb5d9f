package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"afa.directory/internal/obs"
)

const writeTimeout = 5 * time.Second

// Store persists activity entries. Implementations only ever insert.
type Store interface {
	InsertActivity(ctx context.Context, entry Entry) (int64, error)
}

// Recorder appends activity entries after the triggering mutation has committed.
// Write failures are logged and counted, never returned.
type Recorder struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// RecorderOption configures Recorder.
type RecorderOption func(*Recorder)

// WithLogger sets the logger used for dropped writes.
func WithLogger(l *zap.Logger) RecorderOption {
	return func(r *Recorder) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides the creation timestamp source.
func WithClock(fn func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewRecorder constructs a Recorder.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:  store,
		logger: obs.Logger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record completes entry from the context (actor, client ip) and writes it.
// The write is detached from request cancellation so a client disconnect
// after commit does not drop the entry.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil {
		return
	}
	if entry.AdminID == 0 {
		if actor, ok := ActorFromContext(ctx); ok {
			entry.AdminID = actor.ID
			entry.AdminUsername = actor.Username
		}
	}
	if entry.IPAddress == "" {
		entry.IPAddress = ClientIPFromContext(ctx)
	}
	if entry.Status == "" {
		entry.Status = StatusSuccess
	}
	entry.CreatedAt = r.now().UTC()

	if err := entry.validate(); err != nil {
		r.dropped(ctx, entry, err)
		return
	}
	if r.store == nil {
		r.dropped(ctx, entry, fmt.Errorf("activity store unavailable"))
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if _, err := r.store.InsertActivity(writeCtx, entry); err != nil {
		r.dropped(ctx, entry, err)
		return
	}
	obs.ActivityWrites.WithLabelValues(entry.ActionType, entry.EntityType).Inc()
}

func (r *Recorder) dropped(ctx context.Context, entry Entry, err error) {
	obs.ActivityWriteFailures.WithLabelValues(entry.ActionType, entry.EntityType).Inc()
	r.logger.Error("activity log write failed",
		zap.Error(err),
		zap.String("request_id", RequestIDFromContext(ctx)),
		zap.Int64("admin_id", entry.AdminID),
		zap.String("admin_username", entry.AdminUsername),
		zap.String("action_type", entry.ActionType),
		zap.String("entity_type", entry.EntityType),
		zap.Int64("entity_id", entry.EntityID),
		zap.String("entity_name", entry.EntityName),
		zap.String("status", entry.Status),
	)
}

func (e Entry) validate() error {
	if e.AdminID <= 0 || strings.TrimSpace(e.AdminUsername) == "" {
		return fmt.Errorf("%w: acting admin is required", ErrInvalidInput)
	}
	if !ValidAction(e.ActionType) {
		return fmt.Errorf("%w: unknown action type %q", ErrInvalidInput, e.ActionType)
	}
	if !ValidEntity(e.EntityType) {
		return fmt.Errorf("%w: unknown entity type %q", ErrInvalidInput, e.EntityType)
	}
	if e.Status != StatusSuccess && e.Status != StatusFailed {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, e.Status)
	}
	return nil
}
