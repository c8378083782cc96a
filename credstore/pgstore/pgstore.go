package pgstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jrsteele09/go-session-client/credstore"
)

var _ credstore.Store = (*PostgresStore)(nil)

// PostgresStore keeps the two credential slots as rows of a key/value table.
type PostgresStore struct {
	db *sql.DB
}

func New(ctx context.Context, db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	s := &PostgresStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS session_credentials (
	slot TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	if _, err := s.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("ensure session_credentials schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context) (credstore.Credentials, error) {
	const q = `SELECT slot, value FROM session_credentials WHERE slot IN ($1, $2)`
	rows, err := s.db.QueryContext(ctx, q, credstore.AccessTokenKey, credstore.RefreshTokenKey)
	if err != nil {
		return credstore.Credentials{}, fmt.Errorf("query credentials: %w", err)
	}
	defer rows.Close()

	var creds credstore.Credentials
	for rows.Next() {
		var slot, value string
		if err := rows.Scan(&slot, &value); err != nil {
			return credstore.Credentials{}, fmt.Errorf("scan credential: %w", err)
		}
		switch slot {
		case credstore.AccessTokenKey:
			creds.Access = value
		case credstore.RefreshTokenKey:
			creds.Refresh = value
		}
	}
	if err := rows.Err(); err != nil {
		return credstore.Credentials{}, fmt.Errorf("iterate credentials: %w", err)
	}
	return creds, nil
}

func (s *PostgresStore) Set(ctx context.Context, access, refresh string) error {
	if access == "" {
		return credstore.ErrEmptyAccess
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
INSERT INTO session_credentials (slot, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (slot) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := tx.ExecContext(ctx, q, credstore.AccessTokenKey, access); err != nil {
		return fmt.Errorf("upsert access credential: %w", err)
	}
	if refresh != "" {
		if _, err := tx.ExecContext(ctx, q, credstore.RefreshTokenKey, refresh); err != nil {
			return fmt.Errorf("upsert refresh credential: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit credentials: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	const q = `DELETE FROM session_credentials WHERE slot IN ($1, $2)`
	if _, err := s.db.ExecContext(ctx, q, credstore.AccessTokenKey, credstore.RefreshTokenKey); err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}
