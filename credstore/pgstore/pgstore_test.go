package pgstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jrsteele09/go-session-client/credstore"
	"github.com/jrsteele09/go-session-client/credstore/pgstore"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*pgstore.PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS session_credentials").WillReturnResult(sqlmock.NewResult(0, 0))
	s, err := pgstore.New(context.Background(), db)
	require.NoError(t, err)
	return s, mock
}

func TestNewRequiresDB(t *testing.T) {
	_, err := pgstore.New(context.Background(), nil)
	require.Error(t, err)
}

func TestGet(t *testing.T) {
	s, mock := newStore(t)
	rows := sqlmock.NewRows([]string{"slot", "value"}).
		AddRow(credstore.AccessTokenKey, "a1").
		AddRow(credstore.RefreshTokenKey, "r1")
	mock.ExpectQuery("SELECT slot, value FROM session_credentials").
		WithArgs(credstore.AccessTokenKey, credstore.RefreshTokenKey).
		WillReturnRows(rows)

	creds, err := s.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, credstore.Credentials{Access: "a1", Refresh: "r1"}, creds)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEmpty(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectQuery("SELECT slot, value FROM session_credentials").
		WillReturnRows(sqlmock.NewRows([]string{"slot", "value"}))

	creds, err := s.Get(context.Background())
	require.NoError(t, err)
	require.True(t, creds.Empty())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetBothSlots(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO session_credentials").WithArgs(credstore.AccessTokenKey, "a1").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO session_credentials").WithArgs(credstore.RefreshTokenKey, "r1").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Set(context.Background(), "a1", "r1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetWithoutRefreshOnlyTouchesAccess(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO session_credentials").WithArgs(credstore.AccessTokenKey, "a2").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Set(context.Background(), "a2", ""))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRollsBackOnFailure(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO session_credentials").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	require.Error(t, s.Set(context.Background(), "a1", "r1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClear(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectExec("DELETE FROM session_credentials").
		WithArgs(credstore.AccessTokenKey, credstore.RefreshTokenKey).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, s.Clear(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
