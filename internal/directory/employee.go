package directory

import (
	"context"
	"fmt"

	"afa.directory/internal/audit"
)

// ListEmployees returns every employee, hidden ones included, ordered by id.
func (s *Service) ListEmployees(ctx context.Context, companyID *int64) ([]EmployeeView, error) {
	rows, err := s.store.ListEmployees(ctx, EmployeeFilter{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	views := make([]EmployeeView, 0, len(rows))
	for _, e := range rows {
		views = append(views, e.View())
	}
	return views, nil
}

// GetEmployee returns one employee regardless of visibility.
func (s *Service) GetEmployee(ctx context.Context, id int64) (EmployeeView, error) {
	if err := validID(id); err != nil {
		return EmployeeView{}, err
	}
	e, err := s.store.GetEmployee(ctx, id, false)
	if err != nil {
		return EmployeeView{}, err
	}
	return e.View(), nil
}

// CreateEmployee stores a new, visible employee.
func (s *Service) CreateEmployee(ctx context.Context, in EmployeeInput) (EmployeeView, error) {
	in, err := in.Normalize()
	if err != nil {
		return EmployeeView{}, err
	}
	created, err := s.store.CreateEmployee(ctx, in)
	if err != nil {
		return EmployeeView{}, err
	}
	s.invalidateListing(ctx)
	s.record(ctx, audit.Entry{
		ActionType:  audit.ActionCreate,
		EntityType:  audit.EntityEmployee,
		EntityID:    created.ID,
		EntityName:  created.DisplayName(),
		Description: audit.DescribeEmployeeCreated(created.DisplayName()),
		NewValue:    audit.Snapshot(snapshotEmployee(created)),
	})
	return created.View(), nil
}

// UpdateEmployee replaces the full mutable field set. Flags are left untouched.
func (s *Service) UpdateEmployee(ctx context.Context, id int64, in EmployeeInput) (EmployeeView, error) {
	if err := validID(id); err != nil {
		return EmployeeView{}, err
	}
	in, err := in.Normalize()
	if err != nil {
		return EmployeeView{}, err
	}
	before, after, err := s.store.UpdateEmployee(ctx, id, in)
	if err != nil {
		return EmployeeView{}, err
	}
	s.invalidateListing(ctx)
	s.record(ctx, audit.Entry{
		ActionType:  audit.ActionUpdate,
		EntityType:  audit.EntityEmployee,
		EntityID:    after.ID,
		EntityName:  after.DisplayName(),
		Description: audit.DescribeEmployeeUpdated(after.DisplayName()),
		OldValue:    audit.Snapshot(snapshotEmployee(before)),
		NewValue:    audit.Snapshot(snapshotEmployee(after)),
	})
	return after.View(), nil
}

func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	if err := validID(id); err != nil {
		return err
	}
	deleted, err := s.store.DeleteEmployee(ctx, id)
	if err != nil {
		return err
	}
	s.invalidateListing(ctx)
	s.record(ctx, audit.Entry{
		ActionType:  audit.ActionDelete,
		EntityType:  audit.EntityEmployee,
		EntityID:    deleted.ID,
		EntityName:  deleted.DisplayName(),
		Description: audit.DescribeEmployeeDeleted(deleted.DisplayName()),
		OldValue:    audit.Snapshot(snapshotEmployee(deleted)),
	})
	return nil
}

// SetEmployeeFlag sets one flag to an explicit value, which must be 0 or 1.
func (s *Service) SetEmployeeFlag(ctx context.Context, id int64, t Toggle, value int) (EmployeeView, error) {
	if err := validID(id); err != nil {
		return EmployeeView{}, err
	}
	column, ok := t.Column()
	if !ok {
		return EmployeeView{}, fmt.Errorf("%w: unknown flag %q", ErrInvalidInput, t)
	}
	if value != 0 && value != 1 {
		return EmployeeView{}, fmt.Errorf("%w: %s must be 0 or 1", ErrInvalidInput, column)
	}

	before, after, err := s.store.SetEmployeeFlag(ctx, id, t, value)
	if err != nil {
		return EmployeeView{}, err
	}
	s.invalidateListing(ctx)

	name := after.DisplayName()
	shown := value == 1
	entry := audit.Entry{
		ActionType: audit.ActionUpdate,
		EntityType: audit.EntityEmployee,
		EntityID:   after.ID,
		EntityName: name,
	}
	var old int
	switch t {
	case ToggleVisible:
		entry.ActionType = audit.ActionToggleVisibility
		entry.Description = audit.DescribeEmployeeVisibility(name, shown)
		old = before.Visible
	case ToggleShowMobile:
		entry.Description = audit.DescribeEmployeeMobile(name, shown)
		old = before.ShowMobile
	case ToggleShowEmail:
		entry.Description = audit.DescribeEmployeeEmail(name, shown)
		old = before.ShowEmail
	}
	entry.OldValue = audit.Snapshot(map[string]int{column: flagValue(old)})
	entry.NewValue = audit.Snapshot(map[string]int{column: value})
	s.record(ctx, entry)

	return after.View(), nil
}

type employeeSnapshot struct {
	CompanyID  *int64 `json:"company_id"`
	NameEN     string `json:"name_en"`
	NameFA     string `json:"name_fa"`
	TitleEN    string `json:"title_en"`
	TitleFA    string `json:"title_fa"`
	DeptEN     string `json:"dept_en"`
	DeptFA     string `json:"dept_fa"`
	Extension  string `json:"extension"`
	Mobile     string `json:"mobile"`
	Email      string `json:"email"`
	Photo      string `json:"photo"`
	Gender     string `json:"icon"`
	Visible    int    `json:"visible"`
	ShowMobile int    `json:"show_mobile"`
	ShowEmail  int    `json:"show_email"`
}

func snapshotEmployee(e Employee) employeeSnapshot {
	return employeeSnapshot{
		CompanyID:  e.CompanyID,
		NameEN:     e.NameEN,
		NameFA:     e.NameFA,
		TitleEN:    e.TitleEN,
		TitleFA:    e.TitleFA,
		DeptEN:     e.DeptEN,
		DeptFA:     e.DeptFA,
		Extension:  e.Extension,
		Mobile:     e.Mobile,
		Email:      e.Email,
		Photo:      e.Photo,
		Gender:     e.Gender,
		Visible:    flagValue(e.Visible),
		ShowMobile: flagValue(e.ShowMobile),
		ShowEmail:  flagValue(e.ShowEmail),
	}
}
