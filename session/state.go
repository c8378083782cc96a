package session

import (
	"github.com/jrsteele09/go-session-client/claims"
	"github.com/jrsteele09/go-session-client/internal/errors"
)

// State is the lifecycle position of the session.
type State int

const (
	Initializing State = iota
	Unauthenticated
	Authenticated
	Refreshing
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	}
	return "unknown"
}

// Snapshot is the published view of the session.
type Snapshot struct {
	State State
	User  *claims.User

	// Authenticated is true while a decoded, non-expired access credential is
	// held. It is evaluated against the clock when the snapshot is taken.
	Authenticated bool

	// Loading is true until startup validation has settled.
	Loading bool

	// Version increases with every published change.
	Version uint64
}

// RequireAuth returns ErrNotAuthenticated when a consumer must send the user
// to the login entry point. It returns nil while loading so guards wait for
// startup to settle.
func (s Snapshot) RequireAuth() error {
	if s.Loading || s.Authenticated {
		return nil
	}
	return errors.ErrNotAuthenticated
}
