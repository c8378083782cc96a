package keys_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-session-client/authority/token/keys"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	key, err := keys.Generate("kid-1", 2048)
	require.NoError(t, err)
	signer := keys.NewSigner(key)

	signed, err := signer.Sign(jwt.RegisteredClaims{Subject: "user-1"})
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(signed, &jwt.RegisteredClaims{}, func(tok *jwt.Token) (any, error) {
		require.Equal(t, "kid-1", tok.Header["kid"])
		return signer.PublicKey(), nil
	}, jwt.WithValidMethods([]string{keys.RS256}))
	require.NoError(t, err)
	require.Equal(t, "user-1", parsed.Claims.(*jwt.RegisteredClaims).Subject)
}

func TestJWKS(t *testing.T) {
	key, err := keys.Generate("kid-1", 1024)
	require.NoError(t, err)
	require.Equal(t, 2048, key.Public().N.BitLen())

	jwks := keys.NewSigner(key).JWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "RSA", jwks.Keys[0].Kty)
	require.Equal(t, "kid-1", jwks.Keys[0].Kid)
	require.Equal(t, keys.RS256, jwks.Keys[0].Alg)
	require.Equal(t, "AQAB", jwks.Keys[0].E)
}

func TestPEMRoundTrip(t *testing.T) {
	key, err := keys.Generate("kid-1", 2048)
	require.NoError(t, err)

	loaded, err := keys.ParsePEM("kid-1", key.PEM())
	require.NoError(t, err)
	require.Equal(t, 0, key.Public().N.Cmp(loaded.Public().N))
	require.Equal(t, key.Public().E, loaded.Public().E)

	_, err = keys.ParsePEM("kid-1", "not pem")
	require.Error(t, err)
}

func TestParsePKCS8(t *testing.T) {
	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(raw)
	require.NoError(t, err)
	data := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	key, err := keys.ParsePEM("", string(data))
	require.NoError(t, err)
	require.Equal(t, 0, raw.N.Cmp(key.Public().N))
}

func TestThumbprintIsDefaultID(t *testing.T) {
	key, err := keys.Generate("", 2048)
	require.NoError(t, err)
	require.Equal(t, key.Thumbprint(), key.ID)
	require.Len(t, key.ID, 43)

	// Same key, same kid
	loaded, err := keys.ParsePEM("", key.PEM())
	require.NoError(t, err)
	require.Equal(t, key.ID, loaded.ID)
}

func TestParsePEMRejectsSmallKeys(t *testing.T) {
	raw, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	data := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(raw)})

	_, err = keys.ParsePEM("small", string(data))
	require.Error(t, err)
}
