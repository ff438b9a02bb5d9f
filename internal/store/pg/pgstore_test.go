package pg

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"afa.directory/internal/audit"
	"afa.directory/internal/auth"
	"afa.directory/internal/directory"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return New(db), mock
}

var (
	fixedTime      = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	companyCols    = []string{"id", "name_en", "name_fa", "created_at", "updated_at"}
	employeeCols   = []string{"id", "company_id", "company_name_en", "company_name_fa", "name_en", "name_fa", "title_en", "title_fa", "dept_en", "dept_fa", "extension", "mobile", "email", "photo", "icon", "visible", "show_mobile", "show_email", "created_at", "updated_at"}
	adminCols      = []string{"id", "username", "email", "role", "company_id", "is_active", "created_at"}
	accountCols    = []string{"id", "username", "password_hash", "email", "role", "company_id", "is_active"}
	activityHeader = []string{"id", "admin_id", "admin_username", "action_type", "entity_type", "entity_id", "entity_name", "description", "old_value", "new_value", "status", "ip_address", "created_at"}
)

func employeeRow(id int64, visible, showMobile, showEmail int) *sqlmock.Rows {
	return sqlmock.NewRows(employeeCols).AddRow(
		id, int64(1), "Ava Aria", "آوا آریا", "Sara", "سارا", "Engineer", "مهندس", "IT", "فناوری",
		"1203", "09120000000", "sara@example.com", "sara.jpg", "female",
		int64(visible), int64(showMobile), int64(showEmail), fixedTime, fixedTime,
	)
}

func TestMapError(t *testing.T) {
	if err := mapError(nil); err != nil {
		t.Fatalf("nil should map to nil, got %v", err)
	}
	unique := &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "admins_username_key"}
	if err := mapError(unique); !errors.Is(err, directory.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	fk := &pgconn.PgError{Code: pgErrForeignKeyViolation}
	if err := mapError(fk); !errors.Is(err, directory.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	other := errors.New("boom")
	if err := mapError(other); err != other {
		t.Fatalf("unexpected passthrough: %v", err)
	}
}

func TestCreateCompanyConflict(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("insert into companies").
		WithArgs("Ava Aria", "آوا آریا").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "companies_name_en_key"})

	_, err := store.CreateCompany(context.Background(), directory.CompanyInput{NameEN: "Ava Aria", NameFA: "آوا آریا"})
	if !errors.Is(err, directory.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestGetCompanyNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("from companies where id").WithArgs(int64(9)).WillReturnRows(sqlmock.NewRows(companyCols))

	if _, err := store.GetCompany(context.Background(), 9); !errors.Is(err, directory.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteCompanyRemovesEmployees(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery("from companies where id = \\$1 for update").WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(companyCols).AddRow(int64(3), "Ava Aria", "آوا آریا", fixedTime, fixedTime))
	mock.ExpectExec("delete from employees where company_id").WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("delete from companies where id").WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, removed, err := store.DeleteCompany(context.Background(), 3)
	if err != nil {
		t.Fatalf("DeleteCompany: %v", err)
	}
	if c.NameEN != "Ava Aria" || removed != 4 {
		t.Fatalf("unexpected result: %+v removed=%d", c, removed)
	}
}

func TestDeleteCompanyMissingRollsBack(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery("from companies where id").WithArgs(int64(3)).WillReturnRows(sqlmock.NewRows(companyCols))
	mock.ExpectRollback()

	if _, _, err := store.DeleteCompany(context.Background(), 3); !errors.Is(err, directory.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListEmployeesFilters(t *testing.T) {
	store, mock := newMockStore(t)
	companyID := int64(1)
	mock.ExpectQuery(regexp.QuoteMeta("where e.visible = 1 and e.company_id = $1 order by e.id asc")).
		WithArgs(companyID).
		WillReturnRows(employeeRow(5, 1, 0, 1))

	list, err := store.ListEmployees(context.Background(), directory.EmployeeFilter{CompanyID: &companyID, VisibleOnly: true})
	if err != nil {
		t.Fatalf("ListEmployees: %v", err)
	}
	if len(list) != 1 || list[0].CompanyEN != "Ava Aria" || list[0].Gender != "female" {
		t.Fatalf("unexpected employees: %+v", list)
	}
}

func TestGetEmployeeVisibleOnly(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("where e.id = $1 and e.visible = 1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(employeeCols))

	if _, err := store.GetEmployee(context.Background(), 7, true); !errors.Is(err, directory.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateEmployeeUnknownCompany(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery("insert into employees").
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})
	mock.ExpectRollback()

	companyID := int64(99)
	_, err := store.CreateEmployee(context.Background(), directory.EmployeeInput{CompanyID: &companyID, NameEN: "Sara", NameFA: "سارا", Extension: "1203", Gender: "female"})
	if !errors.Is(err, directory.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSetEmployeeFlag(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("for update of e")).WithArgs(int64(5)).WillReturnRows(employeeRow(5, 1, 1, 1))
	mock.ExpectExec(regexp.QuoteMeta("update employees set show_mobile = $1, updated_at = now() where id = $2")).
		WithArgs(0, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("where e.id = $1")).WithArgs(int64(5)).WillReturnRows(employeeRow(5, 1, 0, 1))
	mock.ExpectCommit()

	before, after, err := store.SetEmployeeFlag(context.Background(), 5, directory.ToggleShowMobile, 0)
	if err != nil {
		t.Fatalf("SetEmployeeFlag: %v", err)
	}
	if before.ShowMobile != 1 || after.ShowMobile != 0 {
		t.Fatalf("unexpected flags before=%d after=%d", before.ShowMobile, after.ShowMobile)
	}
}

func TestSetEmployeeFlagRejectsUnknownColumn(t *testing.T) {
	store, _ := newMockStore(t)
	_, _, err := store.SetEmployeeFlag(context.Background(), 5, directory.Toggle("name_en; drop table employees"), 1)
	if !errors.Is(err, directory.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestReplaceEmployees(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("delete from employees").WillReturnResult(sqlmock.NewResult(0, 12))
	mock.ExpectQuery("insert into employees").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery("insert into employees").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectCommit()

	n, err := store.ReplaceEmployees(context.Background(), []directory.EmployeeInput{
		{NameEN: "A", NameFA: "الف", Extension: "1", Gender: "male"},
		{NameEN: "B", NameFA: "ب", Extension: "2", Gender: "unknown"},
	})
	if err != nil {
		t.Fatalf("ReplaceEmployees: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 inserted, got %d", n)
	}
}

func TestCreateAdminDuplicate(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("insert into admins").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "admins_username_key"})

	_, err := store.CreateAdmin(context.Background(), directory.NewAdmin{Username: "root", PasswordHash: "x", Role: auth.RoleAdmin})
	if !errors.Is(err, directory.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeleteAdminReturnsRow(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("delete from admins where id").WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(adminCols).AddRow(int64(4), "ops", nil, "admin", nil, true, fixedTime))

	a, err := store.DeleteAdmin(context.Background(), 4)
	if err != nil {
		t.Fatalf("DeleteAdmin: %v", err)
	}
	if a.Username != "ops" || a.Email != nil {
		t.Fatalf("unexpected admin: %+v", a)
	}
}

func TestFindActiveAccount(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("from admins").WithArgs("admin").
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow(int64(1), "admin", "$2a$10$hash", "admin@system.local", "super_admin", nil, true))

	acc, err := store.FindActiveAccount(context.Background(), "admin")
	if err != nil {
		t.Fatalf("FindActiveAccount: %v", err)
	}
	if acc.Role != auth.RoleSuperAdmin || acc.Email == nil || *acc.Email != "admin@system.local" {
		t.Fatalf("unexpected account: %+v", acc)
	}

	mock.ExpectQuery("from admins").WithArgs("ghost").WillReturnRows(sqlmock.NewRows(accountCols))
	if _, err := store.FindActiveAccount(context.Background(), "ghost"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected auth.ErrNotFound, got %v", err)
	}
}

func TestInsertActivity(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("insert into activity_logs").
		WithArgs(int64(1), "admin", audit.ActionUpdate, audit.EntityEmployee, sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), `{"visible":1}`, nil, audit.StatusSuccess, sqlmock.AnyArg(), fixedTime).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(77)))

	id, err := store.InsertActivity(context.Background(), audit.Entry{
		AdminID:       1,
		AdminUsername: "admin",
		ActionType:    audit.ActionUpdate,
		EntityType:    audit.EntityEmployee,
		EntityID:      5,
		EntityName:    "سارا",
		OldValue:      []byte(`{"visible":1}`),
		Status:        audit.StatusSuccess,
		CreatedAt:     fixedTime,
	})
	if err != nil {
		t.Fatalf("InsertActivity: %v", err)
	}
	if id != 77 {
		t.Fatalf("unexpected id %d", id)
	}
}

func TestListActivityCountsWithFilter(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("select count(*) from activity_logs where action_type = $1 and entity_type = $2")).
		WithArgs(audit.ActionDelete, audit.EntityCompany).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("order by created_at desc, id desc limit $3 offset $4")).
		WithArgs(audit.ActionDelete, audit.EntityCompany, 2, 0).
		WillReturnRows(sqlmock.NewRows(activityHeader).
			AddRow(int64(9), int64(1), "admin", audit.ActionDelete, audit.EntityCompany, int64(3), "آوا", "حذف", []byte(`{"id":3}`), nil, "success", "10.0.0.1", fixedTime).
			AddRow(int64(8), int64(1), "admin", audit.ActionDelete, audit.EntityCompany, nil, nil, nil, nil, nil, "success", nil, fixedTime))

	list, total, err := store.ListActivity(context.Background(), audit.Filter{ActionType: audit.ActionDelete, EntityType: audit.EntityCompany, Limit: 2})
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if total != 3 || len(list) != 2 {
		t.Fatalf("unexpected page total=%d len=%d", total, len(list))
	}
	if string(list[0].OldValue) != `{"id":3}` || list[0].IPAddress != "10.0.0.1" {
		t.Fatalf("unexpected first entry: %+v", list[0])
	}
	if list[1].OldValue != nil || list[1].EntityID != 0 {
		t.Fatalf("expected null columns to stay empty: %+v", list[1])
	}
}

func TestCountActivityByAction(t *testing.T) {
	store, mock := newMockStore(t)
	from := fixedTime.Truncate(24 * time.Hour)
	to := from.Add(24 * time.Hour)
	mock.ExpectQuery("group by action_type").WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"action_type", "count"}).AddRow("CREATE", 2).AddRow("LOGIN", 5))

	counts, err := store.CountActivityByAction(context.Background(), from, to)
	if err != nil {
		t.Fatalf("CountActivityByAction: %v", err)
	}
	if len(counts) != 2 || counts[1].ActionType != "LOGIN" || counts[1].Count != 5 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}
