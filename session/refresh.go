package session

import (
	"context"

	"github.com/jrsteele09/go-session-client/claims"
	"github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/jrsteele09/go-session-client/internal/obs"
)

// Refresh exchanges the held refresh credential for a new access credential.
// Any failure ends the session and clears the store.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.RefreshFrom(ctx, c.AccessToken())
}

// RefreshFrom refreshes on behalf of a caller that saw stale rejected. When
// the held credential has already moved past stale it returns nil without
// contacting the authority. Concurrent callers for the same stale credential
// share one exchange.
func (c *Controller) RefreshFrom(ctx context.Context, stale string) error {
	c.mu.Lock()
	if c.access == "" {
		c.mu.Unlock()
		return errors.ErrNotAuthenticated
	}
	if stale != c.access {
		c.mu.Unlock()
		return nil
	}
	epoch := c.epoch
	snap, changed := c.enterRefreshingLocked()
	c.mu.Unlock()
	if changed {
		c.publish(snap)
	}

	detached := context.WithoutCancel(ctx)
	ch := c.refreshes.DoChan(stale, func() (any, error) {
		return nil, c.exchange(detached, stale, epoch)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.metrics.RefreshCoalesced()
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) enterRefreshingLocked() (Snapshot, bool) {
	if c.state == Refreshing {
		return Snapshot{}, false
	}
	return c.transitionLocked(Refreshing), true
}

// exchange performs one refresh round trip and applies its result, unless
// the session epoch moved on while it was in flight.
func (c *Controller) exchange(parent context.Context, stale string, epoch uint64) error {
	if moved, err := c.checkCurrent(stale, epoch); err != nil || moved {
		return err
	}

	ctx, cancel := context.WithTimeout(parent, c.refreshTimeout)
	defer cancel()

	creds, err := c.store.Get(ctx)
	if err == nil && creds.Refresh == "" {
		err = errors.ErrNoRefreshCredential
	}
	// The store may now hold a later session's refresh credential.
	if moved, cerr := c.checkCurrent(stale, epoch); cerr != nil || moved {
		return cerr
	}

	var cl *claims.Claims
	var access, refresh string
	if err == nil {
		tokens, rerr := c.authority.Refresh(ctx, creds.Refresh)
		if rerr != nil {
			err = rerr
		} else {
			access, refresh = tokens.AccessToken, tokens.Refresh()
			cl, err = claims.Decode(access)
			if err == nil && cl.ExpiredAt(c.nowFunc()) {
				err = errors.Wrapf(errors.ErrMalformedCredential, "session: refreshed credential already expired")
			}
		}
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.metrics.Refresh(obs.ResultDiscarded)
		c.logger.Debug().Msg("discarding refresh result, session ended while in flight")
		return errors.ErrSessionEnded
	}
	if err == nil {
		if serr := c.store.Set(parent, access, refresh); serr != nil {
			err = errors.Wrapf(serr, "session: storing refreshed credentials")
		}
	}
	if err != nil {
		c.failClosedLocked(parent)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.publish(snap)
		c.metrics.Refresh(obs.ResultFailure)
		c.logger.Warn().Err(err).Msg("refresh failed, session ended")
		return err
	}
	c.access = access
	c.claims = cl
	snap := c.transitionLocked(Authenticated)
	c.mu.Unlock()

	c.publish(snap)
	c.metrics.Refresh(obs.ResultSuccess)
	c.logger.Debug().Str("sub", cl.Subject).Msg("refreshed")
	return nil
}

// checkCurrent returns ErrSessionEnded when the session that started the
// exchange has ended, and moved when another exchange already replaced stale.
func (c *Controller) checkCurrent(stale string, epoch uint64) (moved bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		c.metrics.Refresh(obs.ResultDiscarded)
		c.logger.Debug().Msg("discarding refresh, session ended while in flight")
		return false, errors.ErrSessionEnded
	}
	return c.access != stale, nil
}
