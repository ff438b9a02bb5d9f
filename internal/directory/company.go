package directory

import (
	"context"

	"afa.directory/internal/audit"
)

func (s *Service) ListCompanies(ctx context.Context) ([]Company, error) {
	companies, err := s.store.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	if companies == nil {
		companies = []Company{}
	}
	return companies, nil
}

func (s *Service) GetCompany(ctx context.Context, id int64) (Company, error) {
	if err := validID(id); err != nil {
		return Company{}, err
	}
	return s.store.GetCompany(ctx, id)
}

// CreateCompany requires both names; name_en is unique.
func (s *Service) CreateCompany(ctx context.Context, in CompanyInput) (Company, error) {
	in, err := in.Normalize()
	if err != nil {
		return Company{}, err
	}
	company, err := s.store.CreateCompany(ctx, in)
	if err != nil {
		return Company{}, err
	}
	s.record(ctx, audit.Entry{
		ActionType:  audit.ActionCreate,
		EntityType:  audit.EntityCompany,
		EntityID:    company.ID,
		EntityName:  company.DisplayName(),
		Description: audit.DescribeCompanyCreated(company.DisplayName()),
		NewValue:    audit.Snapshot(companySnapshot(company)),
	})
	return company, nil
}

func (s *Service) UpdateCompany(ctx context.Context, id int64, in CompanyInput) (Company, error) {
	if err := validID(id); err != nil {
		return Company{}, err
	}
	in, err := in.Normalize()
	if err != nil {
		return Company{}, err
	}
	before, after, err := s.store.UpdateCompany(ctx, id, in)
	if err != nil {
		return Company{}, err
	}
	s.invalidateListing(ctx)
	s.record(ctx, audit.Entry{
		ActionType:  audit.ActionUpdate,
		EntityType:  audit.EntityCompany,
		EntityID:    after.ID,
		EntityName:  after.DisplayName(),
		Description: audit.DescribeCompanyUpdated(after.DisplayName()),
		OldValue:    audit.Snapshot(companySnapshot(before)),
		NewValue:    audit.Snapshot(companySnapshot(after)),
	})
	return after, nil
}

// DeleteCompany deletes the company together with all of its employees and
// records a single DELETE entry for the company.
func (s *Service) DeleteCompany(ctx context.Context, id int64) error {
	if err := validID(id); err != nil {
		return err
	}
	company, removed, err := s.store.DeleteCompany(ctx, id)
	if err != nil {
		return err
	}
	s.invalidateListing(ctx)
	old := companySnapshot(company)
	old["employees_deleted"] = removed
	s.record(ctx, audit.Entry{
		ActionType:  audit.ActionDelete,
		EntityType:  audit.EntityCompany,
		EntityID:    company.ID,
		EntityName:  company.DisplayName(),
		Description: audit.DescribeCompanyDeleted(company.DisplayName()),
		OldValue:    audit.Snapshot(old),
	})
	return nil
}

func companySnapshot(c Company) map[string]any {
	return map[string]any{"name_en": c.NameEN, "name_fa": c.NameFA}
}
