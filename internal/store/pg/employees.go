package pg

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"afa.directory/internal/directory"
)

const employeeSelect = `
	select e.id, e.company_id,
	       coalesce(c.name_en, '') as company_name_en,
	       coalesce(c.name_fa, '') as company_name_fa,
	       e.name_en, e.name_fa, e.title_en, e.title_fa, e.dept_en, e.dept_fa,
	       e.extension, e.mobile, e.email, e.photo, e.icon,
	       e.visible, e.show_mobile, e.show_email, e.created_at, e.updated_at
	from employees e
	left join companies c on c.id = e.company_id`

func (s *Store) ListEmployees(ctx context.Context, f directory.EmployeeFilter) ([]directory.Employee, error) {
	var (
		where []string
		args  []any
	)
	if f.VisibleOnly {
		where = append(where, "e.visible = 1")
	}
	if f.CompanyID != nil {
		args = append(args, *f.CompanyID)
		where = append(where, fmt.Sprintf("e.company_id = $%d", len(args)))
	}
	query := employeeSelect
	if len(where) > 0 {
		query += " where " + strings.Join(where, " and ")
	}
	query += " order by e.id asc"

	var employees []directory.Employee
	if err := s.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, err
	}
	return employees, nil
}

func (s *Store) GetEmployee(ctx context.Context, id int64, visibleOnly bool) (directory.Employee, error) {
	return getEmployee(ctx, s.db, id, visibleOnly, false)
}

func getEmployee(ctx context.Context, q sqlx.QueryerContext, id int64, visibleOnly, lock bool) (directory.Employee, error) {
	query := employeeSelect + " where e.id = $1"
	if visibleOnly {
		query += " and e.visible = 1"
	}
	if lock {
		query += " for update of e"
	}
	var e directory.Employee
	if err := sqlx.GetContext(ctx, q, &e, query, id); err != nil {
		return directory.Employee{}, mapError(err)
	}
	return e, nil
}

func (s *Store) CreateEmployee(ctx context.Context, in directory.EmployeeInput) (directory.Employee, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return directory.Employee{}, err
	}
	defer func() { _ = tx.Rollback() }()

	id, err := insertEmployee(ctx, tx, in)
	if err != nil {
		return directory.Employee{}, err
	}
	created, err := getEmployee(ctx, tx, id, false, false)
	if err != nil {
		return directory.Employee{}, err
	}
	if err := tx.Commit(); err != nil {
		return directory.Employee{}, err
	}
	return created, nil
}

func insertEmployee(ctx context.Context, tx *sqlx.Tx, in directory.EmployeeInput) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `
		insert into employees
			(company_id, name_en, name_fa, title_en, title_fa, dept_en, dept_fa,
			 extension, mobile, email, photo, icon, visible)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1)
		returning id
	`, in.CompanyID, in.NameEN, in.NameFA, in.TitleEN, in.TitleFA, in.DeptEN, in.DeptFA,
		in.Extension, in.Mobile, in.Email, in.Photo, in.Gender).Scan(&id)
	if err != nil {
		return 0, mapError(err)
	}
	return id, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, id int64, in directory.EmployeeInput) (directory.Employee, directory.Employee, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return directory.Employee{}, directory.Employee{}, err
	}
	defer func() { _ = tx.Rollback() }()

	before, err := getEmployee(ctx, tx, id, false, true)
	if err != nil {
		return directory.Employee{}, directory.Employee{}, err
	}
	_, err = tx.ExecContext(ctx, `
		update employees
		set company_id = $1, name_en = $2, name_fa = $3, title_en = $4, title_fa = $5,
		    dept_en = $6, dept_fa = $7, extension = $8, mobile = $9, email = $10,
		    photo = $11, icon = $12, updated_at = now()
		where id = $13
	`, in.CompanyID, in.NameEN, in.NameFA, in.TitleEN, in.TitleFA, in.DeptEN, in.DeptFA,
		in.Extension, in.Mobile, in.Email, in.Photo, in.Gender, id)
	if err != nil {
		return directory.Employee{}, directory.Employee{}, mapError(err)
	}
	after, err := getEmployee(ctx, tx, id, false, false)
	if err != nil {
		return directory.Employee{}, directory.Employee{}, err
	}
	if err := tx.Commit(); err != nil {
		return directory.Employee{}, directory.Employee{}, err
	}
	return before, after, nil
}

func (s *Store) DeleteEmployee(ctx context.Context, id int64) (directory.Employee, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return directory.Employee{}, err
	}
	defer func() { _ = tx.Rollback() }()

	e, err := getEmployee(ctx, tx, id, false, true)
	if err != nil {
		return directory.Employee{}, err
	}
	if _, err := tx.ExecContext(ctx, `delete from employees where id = $1`, id); err != nil {
		return directory.Employee{}, err
	}
	if err := tx.Commit(); err != nil {
		return directory.Employee{}, err
	}
	return e, nil
}

// SetEmployeeFlag writes one whitelisted flag column.
func (s *Store) SetEmployeeFlag(ctx context.Context, id int64, t directory.Toggle, value int) (directory.Employee, directory.Employee, error) {
	column, ok := t.Column()
	if !ok {
		return directory.Employee{}, directory.Employee{}, fmt.Errorf("%w: unknown flag %q", directory.ErrInvalidInput, t)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return directory.Employee{}, directory.Employee{}, err
	}
	defer func() { _ = tx.Rollback() }()

	before, err := getEmployee(ctx, tx, id, false, true)
	if err != nil {
		return directory.Employee{}, directory.Employee{}, err
	}
	query := fmt.Sprintf(`update employees set %s = $1, updated_at = now() where id = $2`, column)
	if _, err := tx.ExecContext(ctx, query, value, id); err != nil {
		return directory.Employee{}, directory.Employee{}, err
	}
	after, err := getEmployee(ctx, tx, id, false, false)
	if err != nil {
		return directory.Employee{}, directory.Employee{}, err
	}
	if err := tx.Commit(); err != nil {
		return directory.Employee{}, directory.Employee{}, err
	}
	return before, after, nil
}

// ReplaceEmployees clears the employees table and inserts rows in one transaction.
func (s *Store) ReplaceEmployees(ctx context.Context, rows []directory.EmployeeInput) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from employees`); err != nil {
		return 0, err
	}
	for i, in := range rows {
		if _, err := insertEmployee(ctx, tx, in); err != nil {
			return 0, fmt.Errorf("insert employee %d (%s): %w", i, in.Extension, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(rows), nil
}
