package migrate

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"afa.directory/internal/auth"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(MigrationsFS(), ".")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	want := []string{"00001_init.sql", "00002_employee_contact_flags.sql"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected migrations %v", names)
	}
	for _, name := range names {
		data, err := fs.ReadFile(MigrationsFS(), name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		body := string(data)
		if !strings.Contains(body, "-- +goose Up") || !strings.Contains(body, "-- +goose Down") {
			t.Fatalf("%s lacks goose annotations", name)
		}
	}
	flags, _ := fs.ReadFile(MigrationsFS(), "00002_employee_contact_flags.sql")
	if strings.Count(string(flags), "add column if not exists") != 2 {
		t.Fatalf("contact flag migration must be idempotent")
	}
	initSQL, _ := fs.ReadFile(MigrationsFS(), "00001_init.sql")
	if strings.Contains(string(initSQL), "admin_id       bigint not null references") {
		t.Fatalf("activity log must not reference admins")
	}
}

func TestSeedFreshDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_seeds").WillReturnRows(sqlmock.NewRows([]string{"name"}))

	mock.ExpectBegin()
	mock.ExpectQuery("select count\\(\\*\\) from admins").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("insert into admins").
		WithArgs(DefaultAdminUsername, sqlmock.AnyArg(), DefaultAdminEmail, auth.RoleSuperAdmin).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("insert into schema_seeds").WithArgs("default_super_admin", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectQuery("select count\\(\\*\\) from companies").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	for _, c := range DefaultCompanies {
		mock.ExpectExec("insert into companies").WithArgs(c.NameEN, c.NameFA).WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectExec("insert into schema_seeds").WithArgs("default_companies", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mgr := NewManager(db, WithPasswordCost(4), WithLogger(zap.NewNop()))
	if err := mgr.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSeedSkipsRecordedAndPopulated(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_seeds").WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("default_super_admin"))

	mock.ExpectBegin()
	mock.ExpectQuery("select count\\(\\*\\) from companies").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectExec("insert into schema_seeds").WithArgs("default_companies", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mgr := NewManager(db, WithLogger(zap.NewNop()))
	if err := mgr.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSeedFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("create table if not exists schema_seeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("select name from schema_seeds").WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectBegin()
	mock.ExpectQuery("select count\\(\\*\\) from admins").WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	mgr := NewManager(db, WithLogger(zap.NewNop()))
	err = mgr.Seed(context.Background())
	if err == nil || !strings.Contains(err.Error(), "default_super_admin") {
		t.Fatalf("expected wrapped seed error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
