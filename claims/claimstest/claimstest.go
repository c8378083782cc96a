// Package claimstest mints unsigned-trust access credentials for tests.
package claimstest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-session-client/claims"
)

var testKey = []byte("claimstest-signing-key")

// Token mints an HS256 credential carrying c. The signature is real but
// irrelevant to claims.Decode.
func Token(t testing.TB, c claims.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(testKey)
	if err != nil {
		t.Fatalf("sign test token: %v", err)
	}
	return signed
}

// UserToken mints a credential for user expiring at exp. Every call yields a
// distinct credential.
func UserToken(t testing.TB, user claims.User, exp time.Time) string {
	t.Helper()
	return Token(t, claims.Claims{
		Email:    user.Email,
		Role:     user.Role,
		TenantID: user.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
}

// DefaultUser is the identity used across scenario tests.
func DefaultUser() claims.User {
	return claims.User{
		ID:       "user-1",
		Email:    "user@example.com",
		Role:     "admin",
		TenantID: "company-1",
	}
}
