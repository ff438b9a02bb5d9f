package directory

import (
	"context"
	"sort"
	"sync"
	"time"

	"afa.directory/internal/audit"
)

// memStore is an in-memory Store with the same referential rules as the SQL schema.
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	companies map[int64]Company
	employees map[int64]Employee
	admins    map[int64]Admin
	hashes    map[int64]string
}

func newMemStore() *memStore {
	return &memStore{
		companies: map[int64]Company{},
		employees: map[int64]Employee{},
		admins:    map[int64]Admin{},
		hashes:    map[int64]string{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) ListCompanies(context.Context) ([]Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Company
	for _, c := range m.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetCompany(_ context.Context, id int64) (Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return Company{}, ErrNotFound
	}
	return c, nil
}

func (m *memStore) CreateCompany(_ context.Context, in CompanyInput) (Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.companies {
		if c.NameEN == in.NameEN {
			return Company{}, ErrConflict
		}
	}
	now := time.Now().UTC()
	c := Company{ID: m.id(), NameEN: in.NameEN, NameFA: in.NameFA, CreatedAt: now, UpdatedAt: now}
	m.companies[c.ID] = c
	return c, nil
}

func (m *memStore) UpdateCompany(_ context.Context, id int64, in CompanyInput) (Company, Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before, ok := m.companies[id]
	if !ok {
		return Company{}, Company{}, ErrNotFound
	}
	after := before
	after.NameEN, after.NameFA = in.NameEN, in.NameFA
	m.companies[id] = after
	return before, after, nil
}

func (m *memStore) DeleteCompany(_ context.Context, id int64) (Company, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok {
		return Company{}, 0, ErrNotFound
	}
	var removed int64
	for eid, e := range m.employees {
		if e.CompanyID != nil && *e.CompanyID == id {
			delete(m.employees, eid)
			removed++
		}
	}
	delete(m.companies, id)
	return c, removed, nil
}

func (m *memStore) joined(e Employee) Employee {
	e.CompanyEN, e.CompanyFA = "", ""
	if e.CompanyID != nil {
		if c, ok := m.companies[*e.CompanyID]; ok {
			e.CompanyEN, e.CompanyFA = c.NameEN, c.NameFA
		}
	}
	return e
}

func (m *memStore) ListEmployees(_ context.Context, f EmployeeFilter) ([]Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Employee
	for _, e := range m.employees {
		if f.VisibleOnly && e.Visible != 1 {
			continue
		}
		if f.CompanyID != nil && (e.CompanyID == nil || *e.CompanyID != *f.CompanyID) {
			continue
		}
		out = append(out, m.joined(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetEmployee(_ context.Context, id int64, visibleOnly bool) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok || (visibleOnly && e.Visible != 1) {
		return Employee{}, ErrNotFound
	}
	return m.joined(e), nil
}

func (m *memStore) CreateEmployee(_ context.Context, in EmployeeInput) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if in.CompanyID != nil {
		if _, ok := m.companies[*in.CompanyID]; !ok {
			return Employee{}, ErrNotFound
		}
	}
	e := applyInput(Employee{ID: m.id(), Visible: 1, ShowMobile: 1, ShowEmail: 1}, in)
	m.employees[e.ID] = e
	return m.joined(e), nil
}

func (m *memStore) UpdateEmployee(_ context.Context, id int64, in EmployeeInput) (Employee, Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before, ok := m.employees[id]
	if !ok {
		return Employee{}, Employee{}, ErrNotFound
	}
	after := applyInput(before, in)
	m.employees[id] = after
	return m.joined(before), m.joined(after), nil
}

func (m *memStore) DeleteEmployee(_ context.Context, id int64) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok {
		return Employee{}, ErrNotFound
	}
	delete(m.employees, id)
	return e, nil
}

func (m *memStore) SetEmployeeFlag(_ context.Context, id int64, t Toggle, value int) (Employee, Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before, ok := m.employees[id]
	if !ok {
		return Employee{}, Employee{}, ErrNotFound
	}
	after := before
	switch t {
	case ToggleVisible:
		after.Visible = value
	case ToggleShowMobile:
		after.ShowMobile = value
	case ToggleShowEmail:
		after.ShowEmail = value
	}
	m.employees[id] = after
	return m.joined(before), m.joined(after), nil
}

func (m *memStore) ListAdmins(context.Context) ([]Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Admin
	for _, a := range m.admins {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetAdmin(_ context.Context, id int64) (Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[id]
	if !ok {
		return Admin{}, ErrNotFound
	}
	return a, nil
}

func (m *memStore) CreateAdmin(_ context.Context, in NewAdmin) (Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if a.Username == in.Username {
			return Admin{}, ErrConflict
		}
	}
	a := Admin{ID: m.id(), Username: in.Username, Email: in.Email, Role: in.Role, CompanyID: in.CompanyID, IsActive: true, CreatedAt: time.Now().UTC()}
	m.admins[a.ID] = a
	m.hashes[a.ID] = in.PasswordHash
	return a, nil
}

func (m *memStore) DeleteAdmin(_ context.Context, id int64) (Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.admins[id]
	if !ok {
		return Admin{}, ErrNotFound
	}
	delete(m.admins, id)
	delete(m.hashes, id)
	return a, nil
}

func applyInput(e Employee, in EmployeeInput) Employee {
	e.CompanyID = in.CompanyID
	e.NameEN, e.NameFA = in.NameEN, in.NameFA
	e.TitleEN, e.TitleFA = in.TitleEN, in.TitleFA
	e.DeptEN, e.DeptFA = in.DeptEN, in.DeptFA
	e.Extension, e.Mobile, e.Email, e.Photo, e.Gender = in.Extension, in.Mobile, in.Email, in.Photo, in.Gender
	return e
}

type captureRecorder struct {
	entries []audit.Entry
}

func (c *captureRecorder) Record(_ context.Context, entry audit.Entry) {
	c.entries = append(c.entries, entry)
}

type fakeCache struct {
	views       []EmployeeView
	ok          bool
	sets        int
	invalidated int
}

func (f *fakeCache) Get(context.Context) ([]EmployeeView, bool) { return f.views, f.ok }

func (f *fakeCache) Set(_ context.Context, views []EmployeeView) {
	f.views, f.ok = views, true
	f.sets++
}

func (f *fakeCache) Invalidate(context.Context) {
	f.views, f.ok = nil, false
	f.invalidated++
}
