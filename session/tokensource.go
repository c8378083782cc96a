package session

import (
	"context"

	"github.com/jrsteele09/go-session-client/internal/errors"
	"golang.org/x/oauth2"
)

// TokenSource adapts the controller to oauth2.TokenSource. Token refreshes
// through the controller when the held credential has expired, so every
// consumer shares the same coalesced exchange.
func (c *Controller) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, c: c}
}

type tokenSource struct {
	ctx context.Context
	c   *Controller
}

func (ts *tokenSource) Token() (*oauth2.Token, error) {
	tok, expired := ts.c.heldToken()
	if tok == nil {
		return nil, errors.ErrNotAuthenticated
	}
	if !expired {
		return tok, nil
	}
	if err := ts.c.RefreshFrom(ts.ctx, tok.AccessToken); err != nil {
		return nil, err
	}
	tok, expired = ts.c.heldToken()
	if tok == nil || expired {
		return nil, errors.ErrNotAuthenticated
	}
	return tok, nil
}

func (c *Controller) heldToken() (*oauth2.Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.access == "" || c.claims == nil {
		return nil, false
	}
	return &oauth2.Token{
		AccessToken: c.access,
		TokenType:   "Bearer",
		Expiry:      c.claims.Expiry(),
	}, c.claims.ExpiredAt(c.nowFunc())
}
