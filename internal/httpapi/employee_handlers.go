package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"afa.directory/internal/directory"
)

func (a *API) handlePublicDirectory(w http.ResponseWriter, r *http.Request) {
	employees, err := a.directory.PublicDirectory(r.Context())
	if err != nil {
		a.fail(w, r, err, "Employee")
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

func (a *API) handlePublicEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Employee not found")
		return
	}
	employee, err := a.directory.PublicEmployee(r.Context(), id)
	if err != nil {
		a.fail(w, r, err, "Employee")
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (a *API) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	var companyID *int64
	if raw := strings.TrimSpace(r.URL.Query().Get("company_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, r, http.StatusBadRequest, "company_id must be a positive integer")
			return
		}
		companyID = &id
	}
	employees, err := a.directory.ListEmployees(r.Context(), companyID)
	if err != nil {
		a.fail(w, r, err, "Employee")
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

// handleGetEmployee reads one employee regardless of visibility, with raw contact fields.
func (a *API) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Employee not found")
		return
	}
	employee, err := a.directory.GetEmployee(r.Context(), id)
	if err != nil {
		a.fail(w, r, err, "Employee")
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (a *API) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if !a.bind(w, r, &req) {
		return
	}
	employee, err := a.directory.CreateEmployee(r.Context(), req.input())
	if err != nil {
		a.fail(w, r, err, "Employee")
		return
	}
	writeJSON(w, http.StatusCreated, employee)
}

func (a *API) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Employee not found")
		return
	}
	var req employeeRequest
	if !a.bind(w, r, &req) {
		return
	}
	employee, err := a.directory.UpdateEmployee(r.Context(), id, req.input())
	if err != nil {
		a.fail(w, r, err, "Employee")
		return
	}
	writeJSON(w, http.StatusOK, employee)
}

func (a *API) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Employee not found")
		return
	}
	if err := a.directory.DeleteEmployee(r.Context(), id); err != nil {
		a.fail(w, r, err, "Employee")
		return
	}
	writeMessage(w, "Employee deleted")
}

// handleToggle sets one flag to the explicit 0 or 1 carried in the body.
func (a *API) handleToggle(t directory.Toggle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r)
		if !ok {
			writeError(w, r, http.StatusNotFound, "Employee not found")
			return
		}
		req, value := toggleRequest(t)
		if !a.bind(w, r, req) {
			return
		}
		employee, err := a.directory.SetEmployeeFlag(r.Context(), id, t, value())
		if err != nil {
			a.fail(w, r, err, "Employee")
			return
		}
		writeJSON(w, http.StatusOK, employee)
	}
}
