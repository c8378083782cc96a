// Package sessiontest provides a scriptable authority for controller tests.
package sessiontest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-client/authapi"
	"github.com/jrsteele09/go-session-client/claims"
	"github.com/jrsteele09/go-session-client/claims/claimstest"
	"github.com/jrsteele09/go-session-client/internal/errors"
)

// Authority answers Login and Refresh from funcs and counts the calls.
// Unset funcs fail with ErrInvalidCredentials.
type Authority struct {
	LoginFunc   func(ctx context.Context, email, password string) (authapi.TokenResponse, error)
	RefreshFunc func(ctx context.Context, refreshToken string) (authapi.TokenResponse, error)

	logins    atomic.Int32
	refreshes atomic.Int32

	mu          sync.Mutex
	lastRefresh string
}

func (a *Authority) Login(ctx context.Context, email, password string) (authapi.TokenResponse, error) {
	a.logins.Add(1)
	if a.LoginFunc == nil {
		return authapi.TokenResponse{}, errors.ErrInvalidCredentials
	}
	return a.LoginFunc(ctx, email, password)
}

func (a *Authority) Refresh(ctx context.Context, refreshToken string) (authapi.TokenResponse, error) {
	a.refreshes.Add(1)
	a.mu.Lock()
	a.lastRefresh = refreshToken
	a.mu.Unlock()
	if a.RefreshFunc == nil {
		return authapi.TokenResponse{}, errors.ErrInvalidCredentials
	}
	return a.RefreshFunc(ctx, refreshToken)
}

func (a *Authority) Logins() int    { return int(a.logins.Load()) }
func (a *Authority) Refreshes() int { return int(a.refreshes.Load()) }

// LastRefreshToken is the refresh credential presented most recently.
func (a *Authority) LastRefreshToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastRefresh
}

// Pair builds a token response for user whose access credential expires at
// exp. An empty refresh leaves the refresh credential out of the response.
func Pair(t testing.TB, user claims.User, exp time.Time, refresh string) authapi.TokenResponse {
	t.Helper()
	resp := authapi.TokenResponse{
		AccessToken: claimstest.UserToken(t, user, exp),
		TokenType:   "bearer",
		ExpiresIn:   int(time.Until(exp).Seconds()),
	}
	if refresh != "" {
		resp.RefreshToken = &refresh
	}
	return resp
}
