// Package migrate applies the embedded schema migrations and the one-time
// bootstrap seeds.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"afa.directory/internal/auth"
	"afa.directory/internal/obs"
)

const defaultSeedsTable = "schema_seeds"

//go:embed migrations/*.sql
var embedded embed.FS

// MigrationsFS exposes the embedded migrations rooted at their directory.
func MigrationsFS() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Manager executes schema migrations and seed steps.
type Manager struct {
	db           *sql.DB
	seedsTable   string
	passwordCost int
	logger       *zap.Logger
	seeds        []seedStep
}

// Option configures Manager.
type Option func(*Manager)

// WithSeedsTable overrides the default seeds bookkeeping table.
func WithSeedsTable(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.seedsTable = name
		}
	}
}

// WithPasswordCost sets the bcrypt cost for seeded accounts.
func WithPasswordCost(cost int) Option {
	return func(m *Manager) {
		m.passwordCost = cost
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager constructs a Manager.
func NewManager(db *sql.DB, opts ...Option) *Manager {
	m := &Manager{
		db:           db,
		seedsTable:   defaultSeedsTable,
		passwordCost: auth.DefaultPasswordCost,
		logger:       obs.Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.seeds = defaultSeeds(m.passwordCost)
	return m
}

// MigrationState describes one migration version.
type MigrationState struct {
	Version   int64
	Path      string
	Applied   bool
	AppliedAt time.Time
}

func (m *Manager) provider() (*goose.Provider, error) {
	p, err := goose.NewProvider(goose.DialectPostgres, m.db, MigrationsFS())
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return p, nil
}

// Up applies all pending migrations.
func (m *Manager) Up(ctx context.Context) error {
	p, err := m.provider()
	if err != nil {
		return err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		m.logger.Info("migration applied",
			zap.Int64("version", r.Source.Version),
			zap.String("path", r.Source.Path),
			zap.Duration("duration", r.Duration),
		)
	}
	return nil
}

// Down rolls back the most recent applied migration.
func (m *Manager) Down(ctx context.Context) error {
	p, err := m.provider()
	if err != nil {
		return err
	}
	r, err := p.Down(ctx)
	if err != nil {
		return fmt.Errorf("rollback migration: %w", err)
	}
	if r != nil && r.Source != nil {
		m.logger.Info("migration rolled back", zap.Int64("version", r.Source.Version), zap.String("path", r.Source.Path))
	}
	return nil
}

// Status returns every known migration in version order.
func (m *Manager) Status(ctx context.Context) ([]MigrationState, error) {
	p, err := m.provider()
	if err != nil {
		return nil, err
	}
	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	out := make([]MigrationState, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, MigrationState{
			Version:   s.Source.Version,
			Path:      s.Source.Path,
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}

// Bootstrap brings a fresh or existing database to a usable state.
func (m *Manager) Bootstrap(ctx context.Context) error {
	if err := m.Up(ctx); err != nil {
		return err
	}
	return m.Seed(ctx)
}

// Seed runs each pending seed step once, recording it in the seeds table
// within the same transaction.
func (m *Manager) Seed(ctx context.Context) error {
	if err := m.ensureSeedsTable(ctx); err != nil {
		return err
	}
	executed, err := m.listExecuted(ctx)
	if err != nil {
		return err
	}
	for _, step := range m.seeds {
		if executed[step.name] {
			continue
		}
		applied, err := m.runSeed(ctx, step)
		if err != nil {
			return fmt.Errorf("apply seed %s: %w", step.name, err)
		}
		m.logger.Info("seed recorded", zap.String("seed", step.name), zap.Bool("inserted_rows", applied))
	}
	return nil
}

func (m *Manager) runSeed(ctx context.Context, step seedStep) (bool, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	applied, err := step.run(ctx, tx)
	if err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`insert into %s(name, applied_at) values ($1, $2)`, m.seedsTable),
		step.name, time.Now().UTC()); err != nil {
		return false, err
	}
	return applied, tx.Commit()
}

func (m *Manager) ensureSeedsTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		create table if not exists %s (
			name text primary key,
			applied_at timestamptz not null default now()
		);`, m.seedsTable)
	_, err := m.db.ExecContext(ctx, ddl)
	return err
}

func (m *Manager) listExecuted(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf(`select name from %s`, m.seedsTable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		result[name] = true
	}
	return result, rows.Err()
}
