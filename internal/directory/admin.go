package directory

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"afa.directory/internal/audit"
	"afa.directory/internal/auth"
)

const MinPasswordLength = 8

// MaxPasswordBytes is the longest password bcrypt can hash.
const MaxPasswordBytes = 72

func (s *Service) ListAdmins(ctx context.Context) ([]Admin, error) {
	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		return nil, err
	}
	if admins == nil {
		admins = []Admin{}
	}
	return admins, nil
}

func (s *Service) GetAdmin(ctx context.Context, id int64) (Admin, error) {
	if err := validID(id); err != nil {
		return Admin{}, err
	}
	return s.store.GetAdmin(ctx, id)
}

// CreateAdmin hashes the password and stores a new active account.
// A taken username yields ErrConflict.
func (s *Service) CreateAdmin(ctx context.Context, in AdminInput) (Admin, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return Admin{}, fmt.Errorf("%w: username and password (min %d chars) are required", ErrInvalidInput, MinPasswordLength)
	}
	if len(in.Password) > MaxPasswordBytes {
		return Admin{}, fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, MaxPasswordBytes)
	}
	role := auth.NormalizeRole(in.Role)
	if !auth.ValidRole(role) {
		return Admin{}, fmt.Errorf("%w: role must be %s or %s", ErrInvalidInput, auth.RoleAdmin, auth.RoleSuperAdmin)
	}
	var email *string
	if e := strings.TrimSpace(in.Email); e != "" {
		email = &e
	}
	companyID := in.CompanyID
	if companyID != nil && *companyID <= 0 {
		companyID = nil
	}

	hash, err := auth.HashPassword(in.Password, s.passwordCost)
	if err != nil {
		return Admin{}, fmt.Errorf("hash password: %w", err)
	}
	admin, err := s.store.CreateAdmin(ctx, NewAdmin{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		Role:         role,
		CompanyID:    companyID,
	})
	if err != nil {
		return Admin{}, err
	}
	s.record(ctx, audit.Entry{
		ActionType:  audit.ActionCreate,
		EntityType:  audit.EntityAdmin,
		EntityID:    admin.ID,
		EntityName:  admin.Username,
		Description: audit.DescribeAdminCreated(admin.Username),
		NewValue:    audit.Snapshot(adminSnapshot(admin)),
	})
	return admin, nil
}

// DeleteAdmin removes an account other than the caller's own.
func (s *Service) DeleteAdmin(ctx context.Context, actorID, id int64) error {
	if id == actorID {
		return ErrSelfDelete
	}
	if err := validID(id); err != nil {
		return err
	}
	admin, err := s.store.DeleteAdmin(ctx, id)
	if err != nil {
		return err
	}
	s.record(ctx, audit.Entry{
		ActionType:  audit.ActionDelete,
		EntityType:  audit.EntityAdmin,
		EntityID:    admin.ID,
		EntityName:  admin.Username,
		Description: audit.DescribeAdminDeleted(admin.Username),
		OldValue:    audit.Snapshot(adminSnapshot(admin)),
	})
	return nil
}

func adminSnapshot(a Admin) map[string]any {
	return map[string]any{
		"username":   a.Username,
		"email":      a.Email,
		"role":       a.Role,
		"company_id": a.CompanyID,
	}
}
