package directory

import (
	"context"

	"afa.directory/internal/audit"
)

// EmployeeFilter narrows employee listings.
type EmployeeFilter struct {
	CompanyID   *int64
	VisibleOnly bool
}

type CompanyStore interface {
	ListCompanies(ctx context.Context) ([]Company, error)
	GetCompany(ctx context.Context, id int64) (Company, error)
	CreateCompany(ctx context.Context, in CompanyInput) (Company, error)
	UpdateCompany(ctx context.Context, id int64, in CompanyInput) (before, after Company, err error)
	// DeleteCompany removes the company and its employees in one transaction.
	DeleteCompany(ctx context.Context, id int64) (deleted Company, employees int64, err error)
}

type EmployeeStore interface {
	ListEmployees(ctx context.Context, f EmployeeFilter) ([]Employee, error)
	GetEmployee(ctx context.Context, id int64, visibleOnly bool) (Employee, error)
	CreateEmployee(ctx context.Context, in EmployeeInput) (Employee, error)
	UpdateEmployee(ctx context.Context, id int64, in EmployeeInput) (before, after Employee, err error)
	DeleteEmployee(ctx context.Context, id int64) (Employee, error)
	SetEmployeeFlag(ctx context.Context, id int64, t Toggle, value int) (before, after Employee, err error)
}

type AdminStore interface {
	ListAdmins(ctx context.Context) ([]Admin, error)
	GetAdmin(ctx context.Context, id int64) (Admin, error)
	CreateAdmin(ctx context.Context, in NewAdmin) (Admin, error)
	DeleteAdmin(ctx context.Context, id int64) (Admin, error)
}

// Store is the relational backing of the directory.
type Store interface {
	CompanyStore
	EmployeeStore
	AdminStore
}

// Recorder receives one activity entry per committed mutation.
type Recorder interface {
	Record(ctx context.Context, entry audit.Entry)
}

// ListingCache holds the public directory projection.
type ListingCache interface {
	Get(ctx context.Context) ([]EmployeeView, bool)
	Set(ctx context.Context, views []EmployeeView)
	Invalidate(ctx context.Context)
}
