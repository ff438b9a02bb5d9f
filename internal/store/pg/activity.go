package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"afa.directory/internal/audit"
)

const activityColumns = `id, admin_id, admin_username, action_type, entity_type, entity_id,
	entity_name, description, old_value, new_value, status, ip_address, created_at`

type activityRow struct {
	ID            int64          `db:"id"`
	AdminID       int64          `db:"admin_id"`
	AdminUsername string         `db:"admin_username"`
	ActionType    string         `db:"action_type"`
	EntityType    string         `db:"entity_type"`
	EntityID      sql.NullInt64  `db:"entity_id"`
	EntityName    sql.NullString `db:"entity_name"`
	Description   sql.NullString `db:"description"`
	OldValue      []byte         `db:"old_value"`
	NewValue      []byte         `db:"new_value"`
	Status        string         `db:"status"`
	IPAddress     sql.NullString `db:"ip_address"`
	CreatedAt     time.Time      `db:"created_at"`
}

func (r activityRow) entry() audit.Entry {
	return audit.Entry{
		ID:            r.ID,
		AdminID:       r.AdminID,
		AdminUsername: r.AdminUsername,
		ActionType:    r.ActionType,
		EntityType:    r.EntityType,
		EntityID:      r.EntityID.Int64,
		EntityName:    r.EntityName.String,
		Description:   r.Description.String,
		OldValue:      r.OldValue,
		NewValue:      r.NewValue,
		Status:        r.Status,
		IPAddress:     r.IPAddress.String,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

func entries(rows []activityRow) []audit.Entry {
	out := make([]audit.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.entry())
	}
	return out
}

// jsonArg passes a snapshot as text so the driver casts it into jsonb.
func jsonArg(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func (s *Store) InsertActivity(ctx context.Context, e audit.Entry) (int64, error) {
	var entityID sql.NullInt64
	if e.EntityID != 0 {
		entityID = sql.NullInt64{Int64: e.EntityID, Valid: true}
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
		insert into activity_logs
			(admin_id, admin_username, action_type, entity_type, entity_id, entity_name,
			 description, old_value, new_value, status, ip_address, created_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10, $11, $12)
		returning id
	`, e.AdminID, e.AdminUsername, e.ActionType, e.EntityType, entityID, nullIfEmpty(e.EntityName),
		nullIfEmpty(e.Description), jsonArg(e.OldValue), jsonArg(e.NewValue), e.Status,
		nullIfEmpty(e.IPAddress), e.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert activity: %w", err)
	}
	return id, nil
}

// ListActivity returns one page and the count of all rows matching the same filter.
func (s *Store) ListActivity(ctx context.Context, f audit.Filter) ([]audit.Entry, int, error) {
	var (
		where []string
		args  []any
	)
	if f.ActionType != "" {
		args = append(args, f.ActionType)
		where = append(where, fmt.Sprintf("action_type = $%d", len(args)))
	}
	if f.EntityType != "" {
		args = append(args, f.EntityType)
		where = append(where, fmt.Sprintf("entity_type = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " where " + strings.Join(where, " and ")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `select count(*) from activity_logs`+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("count activity: %w", err)
	}

	pageArgs := append(append([]any{}, args...), f.Limit, f.Offset)
	query := fmt.Sprintf(`select %s from activity_logs%s order by created_at desc, id desc limit $%d offset $%d`,
		activityColumns, clause, len(args)+1, len(args)+2)
	var rows []activityRow
	if err := s.db.SelectContext(ctx, &rows, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", err)
	}
	return entries(rows), total, nil
}

// CountActivityByAction groups entries created in [from, to) by action type.
func (s *Store) CountActivityByAction(ctx context.Context, from, to time.Time) ([]audit.ActionCount, error) {
	var counts []audit.ActionCount
	err := s.db.SelectContext(ctx, &counts, `
		select action_type, count(*) as count
		from activity_logs
		where created_at >= $1 and created_at < $2
		group by action_type
		order by action_type asc
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("count activity by action: %w", err)
	}
	return counts, nil
}

func (s *Store) RecentActivity(ctx context.Context, limit int) ([]audit.Entry, error) {
	var rows []activityRow
	err := s.db.SelectContext(ctx, &rows,
		`select `+activityColumns+` from activity_logs order by created_at desc, id desc limit $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	return entries(rows), nil
}
