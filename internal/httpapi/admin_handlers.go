package httpapi

import (
	"net/http"

	"afa.directory/internal/auth"
)

func (a *API) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := a.directory.ListAdmins(r.Context())
	if err != nil {
		a.fail(w, r, err, "Admin")
		return
	}
	writeJSON(w, http.StatusOK, admins)
}

func (a *API) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req adminRequest
	if !a.bind(w, r, &req) {
		return
	}
	admin, err := a.directory.CreateAdmin(r.Context(), req.input())
	if err != nil {
		a.fail(w, r, err, "Admin")
		return
	}
	writeJSON(w, http.StatusCreated, admin)
}

func (a *API) handleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "Admin not found")
		return
	}
	claims, _ := auth.ClaimsFromContext(r.Context())
	if err := a.directory.DeleteAdmin(r.Context(), claims.AdminID, id); err != nil {
		a.fail(w, r, err, "Admin")
		return
	}
	writeMessage(w, "Admin deleted")
}
