package audit

import (
	"encoding/json"
	"errors"
	"time"
)

const (
	ActionCreate           = "CREATE"
	ActionUpdate           = "UPDATE"
	ActionDelete           = "DELETE"
	ActionToggleVisibility = "TOGGLE_VISIBILITY"
	ActionLogin            = "LOGIN"

	EntityEmployee = "employee"
	EntityCompany  = "company"
	EntityAdmin    = "admin"

	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// ErrInvalidInput marks a malformed query or entry.
var ErrInvalidInput = errors.New("audit: invalid input")

// ValidAction reports whether action is a known action type.
func ValidAction(action string) bool {
	switch action {
	case ActionCreate, ActionUpdate, ActionDelete, ActionToggleVisibility, ActionLogin:
		return true
	}
	return false
}

// ValidEntity reports whether entity is a known entity type.
func ValidEntity(entity string) bool {
	switch entity {
	case EntityEmployee, EntityCompany, EntityAdmin:
		return true
	}
	return false
}

// Entry is one immutable activity log row. AdminUsername and EntityName are
// copies taken when the action happened and are never re-resolved.
type Entry struct {
	ID            int64           `json:"id"`
	AdminID       int64           `json:"admin_id"`
	AdminUsername string          `json:"admin_username"`
	ActionType    string          `json:"action_type"`
	EntityType    string          `json:"entity_type"`
	EntityID      int64           `json:"entity_id"`
	EntityName    string          `json:"entity_name"`
	Description   string          `json:"description"`
	OldValue      json.RawMessage `json:"old_value"`
	NewValue      json.RawMessage `json:"new_value"`
	Status        string          `json:"status"`
	IPAddress     string          `json:"ip_address"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Filter narrows an activity listing.
type Filter struct {
	ActionType string
	EntityType string
	Limit      int
	Offset     int
}

// Page is one slice of the activity listing. Total counts every row matching the filter.
type Page struct {
	Data   []Entry `json:"data"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// ActionCount is a per-action aggregate.
type ActionCount struct {
	ActionType string `json:"action_type" db:"action_type"`
	Count      int    `json:"count" db:"count"`
}

// DailyStats aggregates a single UTC day.
type DailyStats struct {
	Date  string        `json:"date"`
	Stats []ActionCount `json:"stats"`
}

// Snapshot serializes v for OldValue/NewValue. Nil input or marshal failure yields nil.
func Snapshot(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
