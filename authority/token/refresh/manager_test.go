package refresh_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-session-client/authority/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-session-client/authority/token/refresh/repofake"
	"github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestCreateIsHexOfConfiguredLength(t *testing.T) {
	m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), refresh.WithTokenLength(16))
	tok, err := m.Create("user-1")
	require.NoError(t, err)
	require.Len(t, tok, 32)
}

func TestSingleTokenPerUser(t *testing.T) {
	m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo())
	first, err := m.Create("user-1")
	require.NoError(t, err)
	second, err := m.Create("user-1")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, _, err = m.Rotate(first)
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)
	_, _, err = m.Rotate(second)
	require.NoError(t, err)
}

func TestRotate(t *testing.T) {
	m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo())
	tok, err := m.Create("user-1")
	require.NoError(t, err)

	userID, next, err := m.Rotate(tok)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)
	require.NotEqual(t, tok, next)

	// A used token cannot be replayed
	_, _, err = m.Rotate(tok)
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)

	_, _, err = m.Rotate(next)
	require.NoError(t, err)
}

func TestRotateExpired(t *testing.T) {
	now := time.Now()
	m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(),
		refresh.WithExpiry(time.Hour),
		refresh.WithNowFunc(func() time.Time { return now }),
	)
	tok, err := m.Create("user-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, _, err = m.Rotate(tok)
	require.ErrorIs(t, err, errors.ErrRefreshTokenExpired)
	_, _, err = m.Rotate(tok)
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)
}

func TestRevokeUser(t *testing.T) {
	m := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo())
	tok, err := m.Create("user-1")
	require.NoError(t, err)

	require.NoError(t, m.RevokeUser("user-1"))
	require.NoError(t, m.RevokeUser("user-1"))
	_, _, err = m.Rotate(tok)
	require.ErrorIs(t, err, errors.ErrInvalidRefreshToken)
}
