package auth

import (
	"strings"
	"time"
)

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// ValidRole reports whether role is one of the two administrator roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// NormalizeRole lower-cases role and falls back to RoleAdmin when empty.
func NormalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return RoleAdmin
	}
	return role
}

// Account is the credential view of an administrator.
type Account struct {
	ID           int64
	Username     string
	PasswordHash string
	Email        *string
	Role         string
	CompanyID    *int64
	IsActive     bool
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   Account
}
