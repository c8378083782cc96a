// Package session owns the authentication lifecycle: startup validation,
// login, logout and refresh of the held credential pair.
//
// A Controller is constructed explicitly and passed to its consumers. It is
// safe for concurrent use. State transitions are serialized by a mutex;
// network exchanges with the authority run outside of it.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-session-client/authapi"
	"github.com/jrsteele09/go-session-client/claims"
	"github.com/jrsteele09/go-session-client/credstore"
	"github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/internal/obs"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Authority is the part of the gateway the controller drives.
type Authority interface {
	Login(ctx context.Context, email, password string) (authapi.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (authapi.TokenResponse, error)
}

type Controller struct {
	authority      Authority
	store          credstore.Store
	logger         zerolog.Logger
	metrics        *obs.SessionMetrics
	nowFunc        func() time.Time
	refreshTimeout time.Duration

	mu      sync.Mutex
	state   State
	access  string
	claims  *claims.Claims
	epoch   uint64 // bumped by logout and login; refreshes started under an older epoch are discarded
	version uint64
	settled bool // startup validation has finished

	refreshes singleflight.Group

	notifyMu  sync.Mutex
	delivered uint64
	listeners map[int]func(Snapshot)
	nextID    int
}

// New creates a Controller in the Initializing state. Call Init to settle it.
func New(authority Authority, store credstore.Store, opts ...ControllerOption) *Controller {
	c := &Controller{
		authority:      authority,
		store:          store,
		logger:         zerolog.Nop(),
		nowFunc:        time.Now,
		refreshTimeout: defaultRefreshTimeout,
		state:          Initializing,
		listeners:      make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "session").Logger()
	return c
}

// Init validates the stored credential. It settles in Authenticated when a
// non-expired credential is held, refreshes once when the held credential
// has expired, and otherwise settles in Unauthenticated. A non-nil error
// explains why stored credentials could not be used; the session is then
// Unauthenticated and the store cleared.
func (c *Controller) Init(ctx context.Context) error {
	creds, err := c.store.Get(ctx)
	if err != nil {
		c.mu.Lock()
		c.resetLocked()
		snap := c.transitionLocked(Unauthenticated)
		c.mu.Unlock()
		c.publish(snap)
		return errors.Wrapf(err, "session: reading stored credentials")
	}

	if creds.Access == "" {
		c.mu.Lock()
		c.resetLocked()
		snap := c.transitionLocked(Unauthenticated)
		c.mu.Unlock()
		c.publish(snap)
		return nil
	}

	cl, err := claims.Decode(creds.Access)
	if err != nil {
		c.mu.Lock()
		c.failClosedLocked(ctx)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.publish(snap)
		c.logger.Warn().Err(err).Msg("stored credential is malformed")
		return err
	}

	c.mu.Lock()
	c.access = creds.Access
	c.claims = cl
	if !cl.ExpiredAt(c.nowFunc()) {
		snap := c.transitionLocked(Authenticated)
		c.mu.Unlock()
		c.publish(snap)
		c.logger.Debug().Str("sub", cl.Subject).Msg("restored session")
		return nil
	}
	c.mu.Unlock()

	c.logger.Debug().Str("sub", cl.Subject).Msg("stored credential expired, refreshing")
	return c.RefreshFrom(ctx, creds.Access)
}

// Login exchanges the user's secret for a credential pair and publishes the
// derived user. On failure the session and the store are left untouched.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	tokens, err := c.authority.Login(ctx, email, password)
	if err != nil {
		c.metrics.Login(obs.ResultFailure)
		return err
	}

	cl, err := claims.Decode(tokens.AccessToken)
	if err != nil {
		c.metrics.Login(obs.ResultFailure)
		return err
	}
	if cl.ExpiredAt(c.nowFunc()) {
		c.metrics.Login(obs.ResultFailure)
		return errors.Wrapf(errors.ErrMalformedCredential, "session: issued credential already expired")
	}

	c.mu.Lock()
	if tokens.Refresh() == "" {
		// A refresh credential from an earlier session must not survive a new login
		if err := c.store.Clear(ctx); err != nil {
			c.mu.Unlock()
			c.metrics.Login(obs.ResultFailure)
			return errors.Wrapf(err, "session: clearing previous credentials")
		}
	}
	if err := c.store.Set(ctx, tokens.AccessToken, tokens.Refresh()); err != nil {
		c.mu.Unlock()
		c.metrics.Login(obs.ResultFailure)
		return errors.Wrapf(err, "session: storing credentials")
	}
	c.epoch++
	c.access = tokens.AccessToken
	c.claims = cl
	snap := c.transitionLocked(Authenticated)
	c.mu.Unlock()

	c.publish(snap)
	c.metrics.Login(obs.ResultSuccess)
	c.logger.Info().Str("sub", cl.Subject).Msg("logged in")
	return nil
}

// Logout ends the session from any state. It always succeeds; a refresh in
// flight is discarded when it returns.
func (c *Controller) Logout(ctx context.Context) {
	c.mu.Lock()
	c.epoch++
	c.resetLocked()
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Err(err).Msg("clearing stored credentials")
	}
	snap := c.transitionLocked(Unauthenticated)
	c.mu.Unlock()

	c.publish(snap)
	c.logger.Info().Msg("logged out")
}

// Current returns the session as of now.
func (c *Controller) Current() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// AccessToken returns the held access credential, or "" when there is none.
// The credential may be expired; the authority decides.
func (c *Controller) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.access
}

func (c *Controller) resetLocked() {
	c.access = ""
	c.claims = nil
}

// failClosedLocked drops the credentials and ends the session.
func (c *Controller) failClosedLocked(ctx context.Context) {
	c.epoch++
	c.resetLocked()
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Err(err).Msg("clearing stored credentials")
	}
	c.transitionLocked(Unauthenticated)
}

func (c *Controller) transitionLocked(next State) Snapshot {
	if c.state != next {
		c.logger.Debug().Stringer("from", c.state).Stringer("to", next).Msg("transition")
		c.metrics.Transition(next.String())
	}
	c.state = next
	if next == Authenticated || next == Unauthenticated {
		c.settled = true
	}
	c.version++
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:   c.state,
		Loading: !c.settled,
		Version: c.version,
	}
	if c.claims != nil && (c.state == Authenticated || c.state == Refreshing) {
		user := c.claims.User()
		snap.User = &user
		snap.Authenticated = !c.claims.ExpiredAt(c.nowFunc())
	}
	return snap
}
