package audit

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultListLimit   = 50
	MaxListLimit       = 500
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

// QueryStore reads activity entries, newest first.
type QueryStore interface {
	ListActivity(ctx context.Context, f Filter) ([]Entry, int, error)
	CountActivityByAction(ctx context.Context, from, to time.Time) ([]ActionCount, error)
	RecentActivity(ctx context.Context, limit int) ([]Entry, error)
}

// Service exposes the read side of the activity log.
type Service struct {
	store QueryStore
	now   func() time.Time
}

// NewService constructs a query Service. A nil clock defaults to time.Now.
func NewService(store QueryStore, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// List returns one page of entries matching f. Unknown filter values are rejected.
func (s *Service) List(ctx context.Context, f Filter) (Page, error) {
	f.ActionType = strings.ToUpper(strings.TrimSpace(f.ActionType))
	f.EntityType = strings.ToLower(strings.TrimSpace(f.EntityType))
	if f.ActionType != "" && !ValidAction(f.ActionType) {
		return Page{}, fmt.Errorf("%w: unknown action_type %q", ErrInvalidInput, f.ActionType)
	}
	if f.EntityType != "" && !ValidEntity(f.EntityType) {
		return Page{}, fmt.Errorf("%w: unknown entity_type %q", ErrInvalidInput, f.EntityType)
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	entries, total, err := s.store.ListActivity(ctx, f)
	if err != nil {
		return Page{}, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return Page{Data: entries, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// TodayStats counts entries created on the current UTC day, grouped by action type.
func (s *Service) TodayStats(ctx context.Context) (DailyStats, error) {
	now := s.now().UTC()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	counts, err := s.store.CountActivityByAction(ctx, from, from.Add(24*time.Hour))
	if err != nil {
		return DailyStats{}, err
	}
	if counts == nil {
		counts = []ActionCount{}
	}
	return DailyStats{Date: from.Format(time.DateOnly), Stats: counts}, nil
}

// Recent returns the newest n entries. Non-positive n means DefaultRecentLimit; n is capped at MaxRecentLimit.
func (s *Service) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = DefaultRecentLimit
	}
	if n > MaxRecentLimit {
		n = MaxRecentLimit
	}
	entries, err := s.store.RecentActivity(ctx, n)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
