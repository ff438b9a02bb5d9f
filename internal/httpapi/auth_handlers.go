package httpapi

import (
	"net/http"
	"time"

	"afa.directory/internal/auth"
)

type adminSummary struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email"`
	Role     string  `json:"role"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Admin     adminSummary `json:"admin"`
}

type profileResponse struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	Email     *string `json:"email"`
	Role      string  `json:"role"`
	CompanyID *int64  `json:"company_id"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "Username and password required")
		return
	}

	session, err := a.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		a.fail(w, r, err, "Admin")
		return
	}
	acc := session.Account
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Admin: adminSummary{
			ID:       acc.ID,
			Username: acc.Username,
			Email:    acc.Email,
			Role:     acc.Role,
		},
	})
}

// handleLogout is stateless: tokens stay valid until they expire.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, "Logged out successfully")
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	admin, err := a.directory.GetAdmin(r.Context(), claims.AdminID)
	if err != nil {
		a.fail(w, r, err, "Admin")
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		ID:        admin.ID,
		Username:  admin.Username,
		Email:     admin.Email,
		Role:      admin.Role,
		CompanyID: admin.CompanyID,
	})
}
