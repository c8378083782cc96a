package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"

	"github.com/golang-jwt/jwt/v5"
)

// RS256 is the only algorithm the authority signs with
const RS256 = "RS256"

const minKeyBits = 2048

// SigningKey is the authority's RSA key. Access tokens carry ID in their kid header.
type SigningKey struct {
	ID  string
	key *rsa.PrivateKey
}

// JWKS is the document served at the JWKS route
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK is the public half of a SigningKey
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// Generate creates a key of at least 2048 bits. An empty id is replaced by
// the key's thumbprint.
func Generate(id string, bits int) (*SigningKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, max(bits, minKeyBits))
	if err != nil {
		return nil, fmt.Errorf("generating RSA key: %w", err)
	}
	return newSigningKey(id, key), nil
}

// ParsePEM reads a PKCS#1 or PKCS#8 RSA private key. An empty id is replaced
// by the key's thumbprint, so the kid survives restarts with the same key.
func ParsePEM(id, data string) (*SigningKey, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("parsing signing key: %w", err)
	}
	if key.N.BitLen() < minKeyBits {
		return nil, fmt.Errorf("signing key has %d bits, need at least %d", key.N.BitLen(), minKeyBits)
	}
	return newSigningKey(id, key), nil
}

func newSigningKey(id string, key *rsa.PrivateKey) *SigningKey {
	k := &SigningKey{ID: id, key: key}
	if k.ID == "" {
		k.ID = k.Thumbprint()
	}
	return k
}

// Public returns the verification key
func (k *SigningKey) Public() *rsa.PublicKey {
	return &k.key.PublicKey
}

// PEM encodes the private key as PKCS#1, the format SIGNING_KEY_PEM expects
func (k *SigningKey) PEM() string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(k.key),
	}))
}

// JWK describes the public key for signature verification
func (k *SigningKey) JWK() JWK {
	n, e := k.components()
	return JWK{Kty: "RSA", Use: "sig", Kid: k.ID, Alg: RS256, N: n, E: e}
}

// Thumbprint is the RFC 7638 SHA-256 thumbprint of the public key
func (k *SigningKey) Thumbprint() string {
	n, e := k.components()
	// Members in lexicographic order, no whitespace
	sum := sha256.Sum256([]byte(`{"e":"` + e + `","kty":"RSA","n":"` + n + `"}`))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func (k *SigningKey) components() (n, e string) {
	pub := k.key.PublicKey
	n = base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
	e = base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes())
	return n, e
}
