// Package memory is a process-local implementation of the directory stores.
// It enforces the same uniqueness and reference rules as the SQL schema.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"afa.directory/internal/audit"
	"afa.directory/internal/auth"
	"afa.directory/internal/directory"
)

var (
	_ directory.Store   = (*InMemory)(nil)
	_ auth.AccountStore = (*InMemory)(nil)
	_ audit.Store       = (*InMemory)(nil)
	_ audit.QueryStore  = (*InMemory)(nil)
)

type InMemory struct {
	mu        sync.RWMutex
	now       func() time.Time
	nextID    int64
	companies map[int64]directory.Company
	employees map[int64]directory.Employee
	admins    map[int64]directory.Admin
	hashes    map[int64]string
	activity  []audit.Entry
}

func New() *InMemory {
	return &InMemory{
		now:       time.Now,
		companies: make(map[int64]directory.Company),
		employees: make(map[int64]directory.Employee),
		admins:    make(map[int64]directory.Admin),
		hashes:    make(map[int64]string),
	}
}

func (s *InMemory) id() int64 {
	s.nextID++
	return s.nextID
}

func sortedValues[T any](m map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if keep == nil || keep(m[id]) {
			out = append(out, m[id])
		}
	}
	return out
}

func (s *InMemory) ListCompanies(context.Context) ([]directory.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.companies, nil), nil
}

func (s *InMemory) GetCompany(_ context.Context, id int64) (directory.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return directory.Company{}, directory.ErrNotFound
	}
	return c, nil
}

func (s *InMemory) companyNameTaken(name string, except int64) bool {
	for id, c := range s.companies {
		if id != except && c.NameEN == name {
			return true
		}
	}
	return false
}

func (s *InMemory) CreateCompany(_ context.Context, in directory.CompanyInput) (directory.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.companyNameTaken(in.NameEN, 0) {
		return directory.Company{}, fmt.Errorf("%w: company name_en already exists", directory.ErrConflict)
	}
	now := s.now().UTC()
	c := directory.Company{ID: s.id(), NameEN: in.NameEN, NameFA: in.NameFA, CreatedAt: now, UpdatedAt: now}
	s.companies[c.ID] = c
	return c, nil
}

func (s *InMemory) UpdateCompany(_ context.Context, id int64, in directory.CompanyInput) (directory.Company, directory.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before, ok := s.companies[id]
	if !ok {
		return directory.Company{}, directory.Company{}, directory.ErrNotFound
	}
	if s.companyNameTaken(in.NameEN, id) {
		return directory.Company{}, directory.Company{}, fmt.Errorf("%w: company name_en already exists", directory.ErrConflict)
	}
	after := before
	after.NameEN, after.NameFA, after.UpdatedAt = in.NameEN, in.NameFA, s.now().UTC()
	s.companies[id] = after
	return before, after, nil
}

func (s *InMemory) DeleteCompany(_ context.Context, id int64) (directory.Company, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok {
		return directory.Company{}, 0, directory.ErrNotFound
	}
	var removed int64
	for eid, e := range s.employees {
		if e.CompanyID != nil && *e.CompanyID == id {
			delete(s.employees, eid)
			removed++
		}
	}
	for aid, a := range s.admins {
		if a.CompanyID != nil && *a.CompanyID == id {
			a.CompanyID = nil
			s.admins[aid] = a
		}
	}
	delete(s.companies, id)
	return c, removed, nil
}

// CompanyIDsByName maps English company names to ids.
func (s *InMemory) CompanyIDsByName(context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int64, len(s.companies))
	for id, c := range s.companies {
		out[c.NameEN] = id
	}
	return out, nil
}

func (s *InMemory) joined(e directory.Employee) directory.Employee {
	e.CompanyEN, e.CompanyFA = "", ""
	if e.CompanyID != nil {
		if c, ok := s.companies[*e.CompanyID]; ok {
			e.CompanyEN, e.CompanyFA = c.NameEN, c.NameFA
		}
	}
	return e
}

func (s *InMemory) ListEmployees(_ context.Context, f directory.EmployeeFilter) ([]directory.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := sortedValues(s.employees, func(e directory.Employee) bool {
		if f.VisibleOnly && e.Visible != 1 {
			return false
		}
		return f.CompanyID == nil || (e.CompanyID != nil && *e.CompanyID == *f.CompanyID)
	})
	for i := range list {
		list[i] = s.joined(list[i])
	}
	return list, nil
}

func (s *InMemory) GetEmployee(_ context.Context, id int64, visibleOnly bool) (directory.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok || (visibleOnly && e.Visible != 1) {
		return directory.Employee{}, directory.ErrNotFound
	}
	return s.joined(e), nil
}

func (s *InMemory) checkCompany(id *int64) error {
	if id == nil {
		return nil
	}
	if _, ok := s.companies[*id]; !ok {
		return fmt.Errorf("%w: referenced company does not exist", directory.ErrInvalidInput)
	}
	return nil
}

func (s *InMemory) insertEmployee(in directory.EmployeeInput) directory.Employee {
	now := s.now().UTC()
	e := apply(directory.Employee{
		ID:         s.id(),
		Visible:    1,
		ShowMobile: 1,
		ShowEmail:  1,
		CreatedAt:  now,
	}, in, now)
	s.employees[e.ID] = e
	return e
}

func (s *InMemory) CreateEmployee(_ context.Context, in directory.EmployeeInput) (directory.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkCompany(in.CompanyID); err != nil {
		return directory.Employee{}, err
	}
	return s.joined(s.insertEmployee(in)), nil
}

func (s *InMemory) UpdateEmployee(_ context.Context, id int64, in directory.EmployeeInput) (directory.Employee, directory.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before, ok := s.employees[id]
	if !ok {
		return directory.Employee{}, directory.Employee{}, directory.ErrNotFound
	}
	if err := s.checkCompany(in.CompanyID); err != nil {
		return directory.Employee{}, directory.Employee{}, err
	}
	after := apply(before, in, s.now().UTC())
	s.employees[id] = after
	return s.joined(before), s.joined(after), nil
}

func (s *InMemory) DeleteEmployee(_ context.Context, id int64) (directory.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return directory.Employee{}, directory.ErrNotFound
	}
	delete(s.employees, id)
	return s.joined(e), nil
}

func (s *InMemory) SetEmployeeFlag(_ context.Context, id int64, t directory.Toggle, value int) (directory.Employee, directory.Employee, error) {
	if _, ok := t.Column(); !ok {
		return directory.Employee{}, directory.Employee{}, fmt.Errorf("%w: unknown flag %q", directory.ErrInvalidInput, t)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	before, ok := s.employees[id]
	if !ok {
		return directory.Employee{}, directory.Employee{}, directory.ErrNotFound
	}
	after := before
	switch t {
	case directory.ToggleVisible:
		after.Visible = value
	case directory.ToggleShowMobile:
		after.ShowMobile = value
	case directory.ToggleShowEmail:
		after.ShowEmail = value
	}
	after.UpdatedAt = s.now().UTC()
	s.employees[id] = after
	return s.joined(before), s.joined(after), nil
}

// ReplaceEmployees swaps the whole employee set atomically.
func (s *InMemory) ReplaceEmployees(_ context.Context, rows []directory.EmployeeInput) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range rows {
		if err := s.checkCompany(in.CompanyID); err != nil {
			return 0, err
		}
	}
	s.employees = make(map[int64]directory.Employee, len(rows))
	for _, in := range rows {
		s.insertEmployee(in)
	}
	return len(rows), nil
}

func apply(e directory.Employee, in directory.EmployeeInput, now time.Time) directory.Employee {
	e.CompanyID = in.CompanyID
	e.NameEN, e.NameFA = in.NameEN, in.NameFA
	e.TitleEN, e.TitleFA = in.TitleEN, in.TitleFA
	e.DeptEN, e.DeptFA = in.DeptEN, in.DeptFA
	e.Extension, e.Mobile, e.Email, e.Photo = in.Extension, in.Mobile, in.Email, in.Photo
	e.Gender = in.Gender
	if e.Gender == "" {
		e.Gender = directory.GenderUnknown
	}
	e.UpdatedAt = now
	return e
}

func (s *InMemory) ListAdmins(context.Context) ([]directory.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.admins, nil), nil
}

func (s *InMemory) GetAdmin(_ context.Context, id int64) (directory.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.admins[id]
	if !ok {
		return directory.Admin{}, directory.ErrNotFound
	}
	return a, nil
}

func (s *InMemory) CreateAdmin(_ context.Context, in directory.NewAdmin) (directory.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.admins {
		if a.Username == in.Username {
			return directory.Admin{}, fmt.Errorf("%w: username already exists", directory.ErrConflict)
		}
	}
	if err := s.checkCompany(in.CompanyID); err != nil {
		return directory.Admin{}, err
	}
	a := directory.Admin{
		ID:        s.id(),
		Username:  in.Username,
		Email:     in.Email,
		Role:      in.Role,
		CompanyID: in.CompanyID,
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	}
	s.admins[a.ID] = a
	s.hashes[a.ID] = in.PasswordHash
	return a, nil
}

func (s *InMemory) DeleteAdmin(_ context.Context, id int64) (directory.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[id]
	if !ok {
		return directory.Admin{}, directory.ErrNotFound
	}
	delete(s.admins, id)
	delete(s.hashes, id)
	return a, nil
}

func (s *InMemory) FindActiveAccount(_ context.Context, username string) (auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, a := range s.admins {
		if a.Username != username || !a.IsActive {
			continue
		}
		return auth.Account{
			ID:           id,
			Username:     a.Username,
			PasswordHash: s.hashes[id],
			Email:        a.Email,
			Role:         a.Role,
			CompanyID:    a.CompanyID,
			IsActive:     a.IsActive,
		}, nil
	}
	return auth.Account{}, auth.ErrNotFound
}

func (s *InMemory) InsertActivity(_ context.Context, e audit.Entry) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	s.activity = append(s.activity, e)
	return e.ID, nil
}

// newestFirst returns entries ordered by created_at desc, id desc.
func (s *InMemory) newestFirst(keep func(audit.Entry) bool) []audit.Entry {
	out := make([]audit.Entry, 0, len(s.activity))
	for _, e := range s.activity {
		if keep == nil || keep(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func page(entries []audit.Entry, offset, limit int) []audit.Entry {
	if offset >= len(entries) {
		return []audit.Entry{}
	}
	end := len(entries)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return entries[offset:end]
}

func (s *InMemory) ListActivity(_ context.Context, f audit.Filter) ([]audit.Entry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := s.newestFirst(func(e audit.Entry) bool {
		return (f.ActionType == "" || e.ActionType == f.ActionType) &&
			(f.EntityType == "" || e.EntityType == f.EntityType)
	})
	return page(matched, f.Offset, f.Limit), len(matched), nil
}

func (s *InMemory) CountActivityByAction(_ context.Context, from, to time.Time) ([]audit.ActionCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, e := range s.activity {
		if !e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			counts[e.ActionType]++
		}
	}
	out := make([]audit.ActionCount, 0, len(counts))
	for action, n := range counts {
		out = append(out, audit.ActionCount{ActionType: action, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActionType < out[j].ActionType })
	return out, nil
}

func (s *InMemory) RecentActivity(_ context.Context, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return page(s.newestFirst(nil), 0, limit), nil
}
