package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"afa.directory/internal/auth"
)

const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
	DefaultAdminEmail    = "admin@system.local"
)

// DefaultCompanies are inserted when the companies table is empty.
var DefaultCompanies = []struct{ NameEN, NameFA string }{
	{"AFA Steel", "فولاد آفا"},
	{"AFA Trading", "تجارت آفا"},
	{"AFA Logistics", "لجستیک آفا"},
	{"AFA Engineering", "مهندسی آفا"},
	{"AFA Technology", "فناوری آفا"},
	{"AFA Finance", "مالی آفا"},
	{"AFA HR", "منابع انسانی آفا"},
}

// seedStep reports whether it inserted anything. Each step is conditional on
// its table being empty, so re-running against populated data is harmless.
type seedStep struct {
	name string
	run  func(ctx context.Context, tx *sql.Tx) (bool, error)
}

func defaultSeeds(passwordCost int) []seedStep {
	return []seedStep{
		{name: "default_super_admin", run: seedSuperAdmin(passwordCost)},
		{name: "default_companies", run: seedCompanies},
	}
}

func tableEmpty(ctx context.Context, tx *sql.Tx, table string) (bool, error) {
	var n int64
	if err := tx.QueryRowContext(ctx, fmt.Sprintf(`select count(*) from %s`, table)).Scan(&n); err != nil {
		return false, err
	}
	return n == 0, nil
}

func seedSuperAdmin(cost int) func(context.Context, *sql.Tx) (bool, error) {
	return func(ctx context.Context, tx *sql.Tx) (bool, error) {
		empty, err := tableEmpty(ctx, tx, "admins")
		if err != nil || !empty {
			return false, err
		}
		hash, err := auth.HashPassword(DefaultAdminPassword, cost)
		if err != nil {
			return false, err
		}
		_, err = tx.ExecContext(ctx, `
			insert into admins (username, password_hash, email, role, is_active)
			values ($1, $2, $3, $4, true)
		`, DefaultAdminUsername, hash, DefaultAdminEmail, auth.RoleSuperAdmin)
		return err == nil, err
	}
}

func seedCompanies(ctx context.Context, tx *sql.Tx) (bool, error) {
	empty, err := tableEmpty(ctx, tx, "companies")
	if err != nil || !empty {
		return false, err
	}
	for _, c := range DefaultCompanies {
		if _, err := tx.ExecContext(ctx, `insert into companies (name_en, name_fa) values ($1, $2)`, c.NameEN, c.NameFA); err != nil {
			return false, err
		}
	}
	return true, nil
}
