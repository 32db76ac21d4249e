package auth

import (
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// TokenValidator turns a bearer token into claims. Failures should be
// *errors.AppError values (TOKEN_EXPIRED, INVALID_TOKEN) so middleware can
// render them directly.
type TokenValidator interface {
	ValidateToken(token string) (any, error)
}

// TokenValidatorFunc adapts a function to TokenValidator.
type TokenValidatorFunc func(token string) (any, error)

func (f TokenValidatorFunc) ValidateToken(token string) (any, error) {
	return f(token)
}

// Claims is the token payload. Subject identifies the caller and is matched
// against an article's author; Roles feed the permission checker.
type Claims struct {
	gojwt.RegisteredClaims
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// SetDefaults fills iat, exp, iss and aud when unset.
func (c *Claims) SetDefaults(now time.Time, ttl time.Duration, issuer string, audience []string) {
	if c.IssuedAt == nil {
		c.IssuedAt = gojwt.NewNumericDate(now)
	}
	if c.ExpiresAt == nil {
		c.ExpiresAt = gojwt.NewNumericDate(now.Add(ttl))
	}
	if c.Issuer == "" {
		c.Issuer = issuer
	}
	if len(c.Audience) == 0 && len(audience) > 0 {
		c.Audience = audience
	}
}

// UserID returns the token subject.
func (c *Claims) UserID() string { return c.Subject }
