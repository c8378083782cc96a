package filestore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-session-client/credstore"
	"github.com/jrsteele09/go-session-client/credstore/filestore"
	"github.com/jrsteele09/go-session-client/credstore/storetest"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) credstore.Store {
		s, err := filestore.New(filepath.Join(t.TempDir(), "nested", "session.json"))
		require.NoError(t, err)
		return s
	})
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")

	first, err := filestore.New(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "a1", "r1"))

	second, err := filestore.New(path)
	require.NoError(t, err)
	creds, err := second.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, credstore.Credentials{Access: "a1", Refresh: "r1"}, creds)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreClearRemovesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := filestore.New(path)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "a1", "r1"))
	require.NoError(t, s.Clear(ctx))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestFileStoreCorruptDocument(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := filestore.New(path)
	require.NoError(t, err)
	_, err = s.Get(ctx)
	require.Error(t, err)

	require.NoError(t, s.Set(ctx, "a1", "r1"))
	creds, err := s.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "a1", creds.Access)
}

func TestFileStoreRequiresPath(t *testing.T) {
	_, err := filestore.New("  ")
	require.Error(t, err)
}
