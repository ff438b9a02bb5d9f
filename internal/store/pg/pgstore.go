package pg

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"afa.directory/internal/audit"
	"afa.directory/internal/auth"
	"afa.directory/internal/directory"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

var (
	_ directory.Store   = (*Store)(nil)
	_ auth.AccountStore = (*Store)(nil)
	_ audit.Store       = (*Store)(nil)
	_ audit.QueryStore  = (*Store)(nil)
)

// Store implements every persistence interface of the service over PostgreSQL.
type Store struct {
	db *sqlx.DB
}

// Open connects through the pgx database/sql driver with pool defaults.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return New(db), nil
}

// New wraps an existing handle.
func New(db *sql.DB) *Store {
	return &Store{db: sqlx.NewDb(db, "pgx")}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db.DB }

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// mapError translates driver errors into directory sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return directory.ErrNotFound
	}
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return fmt.Errorf("%w: %s", directory.ErrConflict, constraintSubject(pgErr))
		case pgErrForeignKeyViolation:
			return fmt.Errorf("%w: referenced company does not exist", directory.ErrInvalidInput)
		}
	}
	return err
}

func constraintSubject(pgErr *pgconn.PgError) string {
	switch pgErr.ConstraintName {
	case "admins_username_key":
		return "username already exists"
	case "companies_name_en_key":
		return "company name_en already exists"
	}
	return "duplicate value"
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
