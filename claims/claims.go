// Package claims decodes the identity carried by an access credential.
//
// Decoding never verifies the signature. The credential arrives over the
// channel to the issuing authority, which is the trust boundary; the client
// only needs the subject, role, tenant and expiry to drive the session.
package claims

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-session-client/internal/errors"
)

// Claims are the fields the authority embeds in an access credential.
type Claims struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"company_id,omitempty"` // Company the user belongs to, absent for unaffiliated users

	jwt.RegisteredClaims
}

// User is the identity projected from the claims. It is never persisted on
// its own; it is rebuilt from the held credential.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	TenantID string `json:"company_id,omitempty"`
}

// Decode parses the claim payload of raw. Any parse problem, a missing
// subject or a missing expiry yields ErrMalformedCredential.
func Decode(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.ErrMalformedCredential
	}

	c := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, c); err != nil {
		return nil, errors.Wrapf(errors.ErrMalformedCredential, "decode: %s", err.Error())
	}
	if strings.TrimSpace(c.Subject) == "" {
		return nil, errors.Wrapf(errors.ErrMalformedCredential, "decode: missing sub claim")
	}
	if c.ExpiresAt == nil {
		return nil, errors.Wrapf(errors.ErrMalformedCredential, "decode: missing exp claim")
	}
	return c, nil
}

// Expiry returns the instant after which the credential is no longer valid.
func (c *Claims) Expiry() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ExpiredAt reports whether the credential is expired at now. A credential
// is expired from the exp instant onwards.
func (c *Claims) ExpiredAt(now time.Time) bool {
	exp := c.Expiry()
	return exp.IsZero() || !now.Before(exp)
}

func (c *Claims) User() User {
	return User{
		ID:       c.Subject,
		Email:    c.Email,
		Role:     c.Role,
		TenantID: c.TenantID,
	}
}
