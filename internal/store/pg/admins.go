package pg

import (
	"context"
	"database/sql"
	"errors"

	"afa.directory/internal/auth"
	"afa.directory/internal/directory"
)

const adminColumns = `id, username, email, role, company_id, is_active, created_at`

func (s *Store) ListAdmins(ctx context.Context) ([]directory.Admin, error) {
	var admins []directory.Admin
	if err := s.db.SelectContext(ctx, &admins, `select `+adminColumns+` from admins order by id asc`); err != nil {
		return nil, err
	}
	return admins, nil
}

func (s *Store) GetAdmin(ctx context.Context, id int64) (directory.Admin, error) {
	var a directory.Admin
	if err := s.db.GetContext(ctx, &a, `select `+adminColumns+` from admins where id = $1`, id); err != nil {
		return directory.Admin{}, mapError(err)
	}
	return a, nil
}

func (s *Store) CreateAdmin(ctx context.Context, in directory.NewAdmin) (directory.Admin, error) {
	var a directory.Admin
	err := s.db.GetContext(ctx, &a, `
		insert into admins (username, password_hash, email, role, company_id, is_active)
		values ($1, $2, $3, $4, $5, true)
		returning `+adminColumns, in.Username, in.PasswordHash, in.Email, in.Role, in.CompanyID)
	if err != nil {
		return directory.Admin{}, mapError(err)
	}
	return a, nil
}

func (s *Store) DeleteAdmin(ctx context.Context, id int64) (directory.Admin, error) {
	var a directory.Admin
	if err := s.db.GetContext(ctx, &a, `delete from admins where id = $1 returning `+adminColumns, id); err != nil {
		return directory.Admin{}, mapError(err)
	}
	return a, nil
}

type accountRow struct {
	ID           int64   `db:"id"`
	Username     string  `db:"username"`
	PasswordHash string  `db:"password_hash"`
	Email        *string `db:"email"`
	Role         string  `db:"role"`
	CompanyID    *int64  `db:"company_id"`
	IsActive     bool    `db:"is_active"`
}

// FindActiveAccount loads credentials for an active administrator.
func (s *Store) FindActiveAccount(ctx context.Context, username string) (auth.Account, error) {
	var row accountRow
	err := s.db.GetContext(ctx, &row, `
		select id, username, password_hash, email, role, company_id, is_active
		from admins
		where username = $1 and is_active
	`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Account{}, auth.ErrNotFound
	}
	if err != nil {
		return auth.Account{}, err
	}
	return auth.Account(row), nil
}
