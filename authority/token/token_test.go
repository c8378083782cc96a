package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-client/authority/token"
	"github.com/jrsteele09/go-session-client/authority/token/keys"
	"github.com/jrsteele09/go-session-client/authority/users"
	"github.com/jrsteele09/go-session-client/claims"
	"github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "http://localhost:8000"
	testAudience = "expense-api"
)

func testSigner(t *testing.T) keys.Signer {
	t.Helper()
	key, err := keys.Generate("test-key", 2048)
	require.NoError(t, err)
	return keys.NewSigner(key)
}

func testUser() *users.User {
	return &users.User{ID: "user-1", Email: "ana@example.com", Role: "manager", CompanyID: "acme"}
}

func TestCreateAndVerify(t *testing.T) {
	signer := testSigner(t)
	creator := token.NewCreator(signer, testIssuer, testAudience, token.WithAccessTokenExpiry(15*time.Minute))
	verifier := token.NewVerifier(testIssuer, testAudience, signer.PublicKey(), nil, nil)

	raw, ttl, err := creator.CreateAccessToken(testUser())
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, ttl)

	c, err := verifier.Verify(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", c.Subject)
	require.Equal(t, "ana@example.com", c.Email)
	require.Equal(t, "manager", c.Role)
	require.Equal(t, "acme", c.TenantID)

	// The client side decoder reads the same token
	decoded, err := claims.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", decoded.Subject)
}

func TestVerifyExpired(t *testing.T) {
	signer := testSigner(t)
	past := time.Now().Add(-2 * time.Hour)
	creator := token.NewCreator(signer, testIssuer, testAudience, token.WithNowFunc(func() time.Time { return past }))
	verifier := token.NewVerifier(testIssuer, testAudience, signer.PublicKey(), nil, nil)

	raw, _, err := creator.CreateAccessToken(testUser())
	require.NoError(t, err)
	_, err = verifier.Verify(context.Background(), raw)
	require.ErrorIs(t, err, errors.ErrTokenExpired)
}

func TestVerifyRejects(t *testing.T) {
	signer := testSigner(t)
	raw, _, err := token.NewCreator(signer, testIssuer, testAudience).CreateAccessToken(testUser())
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier *token.Verifier
		raw      string
	}{
		{"wrong audience", token.NewVerifier(testIssuer, "other-api", signer.PublicKey(), nil, nil), raw},
		{"wrong issuer", token.NewVerifier("http://elsewhere", testAudience, signer.PublicKey(), nil, nil), raw},
		{"wrong key", token.NewVerifier(testIssuer, testAudience, testSigner(t).PublicKey(), nil, nil), raw},
		{"garbage", token.NewVerifier(testIssuer, testAudience, signer.PublicKey(), nil, nil), "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.verifier.Verify(context.Background(), tt.raw)
			require.ErrorIs(t, err, errors.ErrInvalidToken)
		})
	}
}

func TestVerifyRevoked(t *testing.T) {
	signer := testSigner(t)
	revoked := token.NewInMemoryRevokedUsers(time.Hour)
	verifier := token.NewVerifier(testIssuer, testAudience, signer.PublicKey(), revoked, nil)

	raw, _, err := token.NewCreator(signer, testIssuer, testAudience).CreateAccessToken(testUser())
	require.NoError(t, err)
	_, err = verifier.Verify(context.Background(), raw)
	require.NoError(t, err)

	revoked.Revoke("user-1", time.Now().Add(2*time.Second))
	_, err = verifier.Verify(context.Background(), raw)
	require.ErrorIs(t, err, errors.ErrInvalidToken)
}

func TestRevokedUsersCleanup(t *testing.T) {
	revoked := token.NewInMemoryRevokedUsers(time.Minute)
	at := time.Now()
	revoked.Revoke("user-1", at)

	require.True(t, revoked.IsRevoked("user-1", at.Add(-time.Second)))
	require.False(t, revoked.IsRevoked("user-1", at.Add(time.Second)))
	require.False(t, revoked.IsRevoked("user-2", at.Add(-time.Second)))

	revoked.Cleanup(at.Add(2 * time.Minute))
	require.False(t, revoked.IsRevoked("user-1", at.Add(-time.Second)))
}
