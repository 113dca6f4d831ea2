package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the token_type claim. Access tokens are the only
// ones accepted on protected routes; refresh tokens are only accepted by
// the rotation endpoint.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AuthClaims represents structured JWT claims
type AuthClaims interface {
	Subject() string
	UserID() string
	TokenType() string
	TokenID() string
	Admin() bool
	Superuser() bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID         string `json:"uid,omitempty"`
	Type        string `json:"token_type,omitempty"`
	IsAdmin     bool   `json:"is_admin,omitempty"`
	IsSuperuser bool   `json:"is_superuser,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// TokenType reports whether the token is an access or refresh credential.
func (c *JWTClaims) TokenType() string {
	return c.Type
}

// TokenID returns the jti claim. Refresh tokens always carry one; it is
// the value persisted on blacklisting.
func (c *JWTClaims) TokenID() string {
	return c.RegisteredClaims.ID
}

// Admin reports the is_admin flag captured at issue time.
func (c *JWTClaims) Admin() bool {
	return c.IsAdmin
}

// Superuser reports the is_superuser flag captured at issue time.
func (c *JWTClaims) Superuser() bool {
	return c.IsSuperuser
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
