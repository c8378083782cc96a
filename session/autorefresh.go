package session

import (
	"context"
	"time"
)

// AutoRefresh refreshes the held credential skew before it expires and keeps
// doing so until ctx ends. While there is no session it waits for the next
// state change. A failed refresh ends the session like any other.
func (c *Controller) AutoRefresh(ctx context.Context, skew time.Duration) error {
	wake := make(chan struct{}, 1)
	unsubscribe := c.Subscribe(func(Snapshot) {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		access, wait, ok := c.nextRefresh(skew)

		var timer *time.Timer
		var fire <-chan time.Time
		if ok {
			timer = time.NewTimer(wait)
			fire = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case <-wake:
			if timer != nil {
				timer.Stop()
			}
		case <-fire:
			if err := c.RefreshFrom(ctx, access); err != nil && ctx.Err() == nil {
				c.logger.Warn().Err(err).Msg("scheduled refresh failed")
			}
		}
	}
}

// nextRefresh reports how long to wait before refreshing the held credential.
// A credential living shorter than skew is refreshed at half its remaining life.
func (c *Controller) nextRefresh(skew time.Duration) (string, time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Authenticated || c.claims == nil {
		return "", 0, false
	}
	remaining := c.claims.Expiry().Sub(c.nowFunc())
	wait := remaining - skew
	if wait < remaining/2 {
		wait = remaining / 2
	}
	if wait < 0 {
		wait = 0
	}
	return c.access, wait, true
}
