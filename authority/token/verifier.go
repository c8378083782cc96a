package token

import (
	"context"
	"crypto"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-session-client/claims"
	"github.com/jrsteele09/go-session-client/internal/errors"
)

// Verifier checks signature, issuer, audience and expiry of access tokens
// minted by Creator.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
	revoked  RevokedUsers
}

func NewVerifier(issuer, audience string, publicKey crypto.PublicKey, revoked RevokedUsers, now func() time.Time) *Verifier {
	if now == nil {
		now = time.Now
	}
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{publicKey}}
	cfg := &oidc.Config{
		ClientID:             audience,
		SkipClientIDCheck:    audience == "",
		SupportedSigningAlgs: []string{oidc.RS256},
		Now:                  now,
	}
	return &Verifier{
		verifier: oidc.NewVerifier(issuer, keySet, cfg),
		revoked:  revoked,
	}
}

// Verify returns the claims of a valid token. Expired tokens yield
// ErrTokenExpired, every other failure ErrInvalidToken.
func (v *Verifier) Verify(ctx context.Context, raw string) (*claims.Claims, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		var expired *oidc.TokenExpiredError
		if errors.As(err, &expired) {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.Wrapf(errors.ErrInvalidToken, "verify: %s", err.Error())
	}

	c := &claims.Claims{}
	if err := idToken.Claims(c); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "claims: %s", err.Error())
	}
	if c.Subject == "" {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "missing sub claim")
	}
	if v.revoked != nil && v.revoked.IsRevoked(c.Subject, idToken.IssuedAt) {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "token revoked")
	}
	return c, nil
}
