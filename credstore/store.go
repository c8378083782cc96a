// Package credstore holds the access and refresh credentials between runs.
//
// The store is the only component that touches durable storage. Writes are
// last-write-wins and an absent pair of slots is the canonical logged-out
// representation.
package credstore

import (
	"context"
	"errors"
)

// Well-known slot keys
const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"
)

var ErrEmptyAccess = errors.New("credstore: access credential is required")

// Credentials is the stored pair. Either field may be empty.
type Credentials struct {
	Access  string `json:"access_token,omitempty"`
	Refresh string `json:"refresh_token,omitempty"`
}

func (c Credentials) Empty() bool {
	return c.Access == "" && c.Refresh == ""
}

// Store is the durable slot for the current credential pair.
type Store interface {
	// Get returns the held pair; a logged-out store returns the zero value and no error.
	Get(ctx context.Context) (Credentials, error)

	// Set replaces the access credential. An empty refresh leaves the stored
	// refresh credential untouched.
	Set(ctx context.Context, access, refresh string) error

	// Clear removes both slots.
	Clear(ctx context.Context) error
}

// Merge applies a Set to an existing pair.
func Merge(current Credentials, access, refresh string) Credentials {
	next := Credentials{Access: access, Refresh: current.Refresh}
	if refresh != "" {
		next.Refresh = refresh
	}
	return next
}
