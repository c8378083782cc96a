package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-session-client/authority/token/keys"
	"github.com/jrsteele09/go-session-client/authority/users"
	"github.com/jrsteele09/go-session-client/claims"
)

const defaultAccessTokenExpiry = 60 * time.Minute

// Creator mints RS256 access tokens
type Creator struct {
	signer   keys.Signer
	issuer   string
	audience string
	expiry   time.Duration
	nowFunc  func() time.Time
}

type CreatorOption func(*Creator)

func WithAccessTokenExpiry(d time.Duration) CreatorOption {
	return func(c *Creator) {
		if d > 0 {
			c.expiry = d
		}
	}
}

func WithNowFunc(now func() time.Time) CreatorOption {
	return func(c *Creator) {
		c.nowFunc = now
	}
}

func NewCreator(signer keys.Signer, issuer, audience string, opts ...CreatorOption) *Creator {
	c := &Creator{
		signer:   signer,
		issuer:   issuer,
		audience: audience,
		expiry:   defaultAccessTokenExpiry,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateAccessToken mints an access token for user. It returns the token and
// its lifetime.
func (c *Creator) CreateAccessToken(user *users.User) (string, time.Duration, error) {
	now := c.nowFunc()
	tokenClaims := claims.Claims{
		Email:    user.Email,
		Role:     user.Role,
		TenantID: user.CompanyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   user.ID,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.expiry)),
			ID:        uuid.New().String(), // Unique token ID
		},
	}

	signed, err := c.signer.Sign(tokenClaims)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, c.expiry, nil
}
