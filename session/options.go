package session

import (
	"time"

	"github.com/jrsteele09/go-session-client/internal/obs"
	"github.com/rs/zerolog"
)

const defaultRefreshTimeout = 15 * time.Second

type ControllerOption func(*Controller)

func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithNowFunc(now func() time.Time) ControllerOption {
	return func(c *Controller) {
		c.nowFunc = now
	}
}

func WithMetrics(m *obs.SessionMetrics) ControllerOption {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithRefreshTimeout bounds a refresh exchange. The exchange is detached from
// the caller's cancellation so a waiter giving up does not fail the others.
func WithRefreshTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}
