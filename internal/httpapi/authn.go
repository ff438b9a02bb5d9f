package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"afa.directory/internal/audit"
	"afa.directory/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// authenticated verifies the bearer token and attaches its claims and actor
// to the request context.
func (a *API) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if errors.Is(err, auth.ErrMissingToken) {
			writeError(w, r, http.StatusUnauthorized, "Access token required")
			return
		}
		if err != nil {
			writeError(w, r, http.StatusForbidden, "Invalid token")
			return
		}
		claims, err := a.auth.VerifyToken(token)
		if err != nil {
			writeError(w, r, http.StatusForbidden, "Invalid token")
			return
		}

		ctx := auth.ContextWithClaims(r.Context(), claims)
		ctx = audit.WithActor(ctx, audit.Actor{ID: claims.AdminID, Username: claims.Username})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// superAdmin is authenticated plus the super_admin role.
func (a *API) superAdmin(next http.HandlerFunc) http.Handler {
	return a.authenticated(RequireRole(auth.RoleSuperAdmin)(next).ServeHTTP)
}

// RequireRole rejects requests whose verified claims do not carry role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := auth.ClaimsFromContext(r.Context())
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="afa-directory"`)
				writeError(w, r, http.StatusUnauthorized, "Access token required")
				return
			}
			if claims.Role != role {
				if role == auth.RoleSuperAdmin {
					writeError(w, r, http.StatusForbidden, "Super Admin access required")
					return
				}
				writeError(w, r, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" || strings.EqualFold(header, strings.TrimSpace(bearer)) {
		return "", auth.ErrMissingToken
	}
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return "", auth.ErrInvalidToken
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", auth.ErrMissingToken
	}
	return token, nil
}
