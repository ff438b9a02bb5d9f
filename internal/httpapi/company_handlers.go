package httpapi

import (
	"net/http"
)

func (a *API) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := a.directory.ListCompanies(r.Context())
	if err != nil {
		a.fail(w, r, err, "Company")
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

func (a *API) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Company not found")
		return
	}
	company, err := a.directory.GetCompany(r.Context(), id)
	if err != nil {
		a.fail(w, r, err, "Company")
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (a *API) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if !a.bind(w, r, &req) {
		return
	}
	company, err := a.directory.CreateCompany(r.Context(), req.input())
	if err != nil {
		a.fail(w, r, err, "Company")
		return
	}
	writeJSON(w, http.StatusCreated, company)
}

func (a *API) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Company not found")
		return
	}
	var req companyRequest
	if !a.bind(w, r, &req) {
		return
	}
	company, err := a.directory.UpdateCompany(r.Context(), id, req.input())
	if err != nil {
		a.fail(w, r, err, "Company")
		return
	}
	writeJSON(w, http.StatusOK, company)
}

func (a *API) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Company not found")
		return
	}
	if err := a.directory.DeleteCompany(r.Context(), id); err != nil {
		a.fail(w, r, err, "Company")
		return
	}
	writeMessage(w, "Company deleted")
}
