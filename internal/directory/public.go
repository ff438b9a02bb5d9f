package directory

import "context"

// PublicDirectory lists visible employees with their company names, ordered by id.
// Mobile and email are blanked for employees that hide them.
func (s *Service) PublicDirectory(ctx context.Context) ([]EmployeeView, error) {
	if s.cache != nil {
		if views, ok := s.cache.Get(ctx); ok {
			return views, nil
		}
	}
	rows, err := s.store.ListEmployees(ctx, EmployeeFilter{VisibleOnly: true})
	if err != nil {
		return nil, err
	}
	views := make([]EmployeeView, 0, len(rows))
	for _, e := range rows {
		views = append(views, e.PublicView())
	}
	if s.cache != nil {
		s.cache.Set(ctx, views)
	}
	return views, nil
}

// PublicEmployee returns one visible employee. Hidden and missing ids both yield ErrNotFound.
func (s *Service) PublicEmployee(ctx context.Context, id int64) (EmployeeView, error) {
	if err := validID(id); err != nil {
		return EmployeeView{}, err
	}
	e, err := s.store.GetEmployee(ctx, id, true)
	if err != nil {
		return EmployeeView{}, err
	}
	return e.PublicView(), nil
}
