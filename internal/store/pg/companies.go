package pg

import (
	"context"

	"afa.directory/internal/directory"
)

const companyColumns = `id, name_en, name_fa, created_at, updated_at`

func (s *Store) ListCompanies(ctx context.Context) ([]directory.Company, error) {
	var companies []directory.Company
	err := s.db.SelectContext(ctx, &companies, `select `+companyColumns+` from companies order by id asc`)
	if err != nil {
		return nil, err
	}
	return companies, nil
}

func (s *Store) GetCompany(ctx context.Context, id int64) (directory.Company, error) {
	var c directory.Company
	err := s.db.GetContext(ctx, &c, `select `+companyColumns+` from companies where id = $1`, id)
	if err != nil {
		return directory.Company{}, mapError(err)
	}
	return c, nil
}

func (s *Store) CreateCompany(ctx context.Context, in directory.CompanyInput) (directory.Company, error) {
	var c directory.Company
	err := s.db.GetContext(ctx, &c, `
		insert into companies (name_en, name_fa)
		values ($1, $2)
		returning `+companyColumns, in.NameEN, in.NameFA)
	if err != nil {
		return directory.Company{}, mapError(err)
	}
	return c, nil
}

func (s *Store) UpdateCompany(ctx context.Context, id int64, in directory.CompanyInput) (directory.Company, directory.Company, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return directory.Company{}, directory.Company{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var before, after directory.Company
	if err := tx.GetContext(ctx, &before, `select `+companyColumns+` from companies where id = $1 for update`, id); err != nil {
		return directory.Company{}, directory.Company{}, mapError(err)
	}
	err = tx.GetContext(ctx, &after, `
		update companies
		set name_en = $1, name_fa = $2, updated_at = now()
		where id = $3
		returning `+companyColumns, in.NameEN, in.NameFA, id)
	if err != nil {
		return directory.Company{}, directory.Company{}, mapError(err)
	}
	if err := tx.Commit(); err != nil {
		return directory.Company{}, directory.Company{}, err
	}
	return before, after, nil
}

// DeleteCompany removes dependent employees before the company row inside one
// transaction; the foreign key cascade covers the same rows.
func (s *Store) DeleteCompany(ctx context.Context, id int64) (directory.Company, int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return directory.Company{}, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var c directory.Company
	if err := tx.GetContext(ctx, &c, `select `+companyColumns+` from companies where id = $1 for update`, id); err != nil {
		return directory.Company{}, 0, mapError(err)
	}
	res, err := tx.ExecContext(ctx, `delete from employees where company_id = $1`, id)
	if err != nil {
		return directory.Company{}, 0, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return directory.Company{}, 0, err
	}
	if _, err := tx.ExecContext(ctx, `delete from companies where id = $1`, id); err != nil {
		return directory.Company{}, 0, err
	}
	if err := tx.Commit(); err != nil {
		return directory.Company{}, 0, err
	}
	return c, removed, nil
}

// CompanyIDsByName maps English company names to ids.
func (s *Store) CompanyIDsByName(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		ID     int64  `db:"id"`
		NameEN string `db:"name_en"`
	}
	if err := s.db.SelectContext(ctx, &rows, `select id, name_en from companies`); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.NameEN] = r.ID
	}
	return out, nil
}
