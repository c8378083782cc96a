package keys

import (
	"crypto"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs access tokens and publishes the key that verifies them
type Signer interface {
	Sign(claims jwt.Claims) (string, error)
	PublicKey() crypto.PublicKey
	JWKS() JWKS
}

// RS256Signer signs with a single SigningKey
type RS256Signer struct {
	key *SigningKey
}

var _ Signer = (*RS256Signer)(nil)

func NewSigner(key *SigningKey) *RS256Signer {
	return &RS256Signer{key: key}
}

func (s *RS256Signer) Sign(claims jwt.Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = s.key.ID

	signed, err := tok.SignedString(s.key.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (s *RS256Signer) PublicKey() crypto.PublicKey {
	return s.key.Public()
}

func (s *RS256Signer) JWKS() JWKS {
	return JWKS{Keys: []JWK{s.key.JWK()}}
}
