// Package storetest is the behavioural suite every credstore.Store must pass.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/jrsteele09/go-session-client/credstore"
	"github.com/stretchr/testify/require"
)

// Run exercises the Store contract. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) credstore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty store is logged out", func(t *testing.T) {
		s := newStore(t)
		creds, err := s.Get(ctx)
		require.NoError(t, err)
		require.True(t, creds.Empty())
	})

	t.Run("set stores both slots", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "a1", "r1"))
		creds, err := s.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, credstore.Credentials{Access: "a1", Refresh: "r1"}, creds)
	})

	t.Run("set without refresh keeps previous refresh", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "a1", "r1"))
		require.NoError(t, s.Set(ctx, "a2", ""))
		creds, err := s.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, credstore.Credentials{Access: "a2", Refresh: "r1"}, creds)
	})

	t.Run("last write wins", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "a1", "r1"))
		require.NoError(t, s.Set(ctx, "a2", "r2"))
		creds, err := s.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, credstore.Credentials{Access: "a2", Refresh: "r2"}, creds)
	})

	t.Run("empty access is rejected", func(t *testing.T) {
		s := newStore(t)
		require.ErrorIs(t, s.Set(ctx, "", "r1"), credstore.ErrEmptyAccess)
	})

	t.Run("clear removes both and is idempotent", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "a1", "r1"))
		require.NoError(t, s.Clear(ctx))
		require.NoError(t, s.Clear(ctx))
		creds, err := s.Get(ctx)
		require.NoError(t, err)
		require.True(t, creds.Empty())
	})

	t.Run("concurrent writers leave a consistent pair", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.Set(ctx, "a", "r")
			}()
		}
		wg.Wait()
		creds, err := s.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, credstore.Credentials{Access: "a", Refresh: "r"}, creds)
	})
}
