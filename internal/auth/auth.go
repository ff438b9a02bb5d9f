package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultIssuer    = "afa-directory"
	DefaultAccessTTL = 30 * time.Minute
)

// Claims are embedded in every session token.
type Claims struct {
	AdminID  int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IsSuperAdmin reports whether the claims carry the elevated role.
func (c Claims) IsSuperAdmin() bool {
	return c.Role == RoleSuperAdmin
}

// IssueToken signs an HS256 token for the account.
func (s *Service) IssueToken(acc Account) (string, time.Time, error) {
	if len(s.tokenSecret) == 0 {
		return "", time.Time{}, errMissingSecret
	}
	if acc.ID <= 0 || strings.TrimSpace(acc.Username) == "" {
		return "", time.Time{}, fmt.Errorf("%w: account identity is required", ErrInvalidInput)
	}
	now := s.now().UTC()
	expiresAt := now.Add(s.accessTTL)
	claims := Claims{
		AdminID:  acc.ID,
		Username: acc.Username,
		Role:     acc.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   fmt.Sprintf("%d", acc.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.tokenSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// VerifyToken checks signature, issuer and expiry and returns the embedded claims.
// Every failure is reported as ErrInvalidToken.
func (s *Service) VerifyToken(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrMissingToken
	}
	if len(s.tokenSecret) == 0 {
		return Claims{}, errMissingSecret
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.tokenSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if err := validateClaims(claims); err != nil {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}

var errMissingSecret = errors.New("auth: token secret is not configured")

func validateClaims(claims *Claims) error {
	if claims.AdminID <= 0 {
		return errors.New("admin id missing")
	}
	if strings.TrimSpace(claims.Username) == "" {
		return errors.New("username missing")
	}
	if !ValidRole(claims.Role) {
		return fmt.Errorf("unexpected role: %q", claims.Role)
	}
	if claims.IssuedAt == nil {
		return errors.New("issued-at missing")
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return errors.New("token expiry precedes issued-at")
	}
	return nil
}
