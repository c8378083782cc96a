package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jrsteele09/go-session-client/credstore"
	"github.com/jrsteele09/go-session-client/credstore/filestore"
	"github.com/jrsteele09/go-session-client/credstore/memstore"
	"github.com/jrsteele09/go-session-client/credstore/pgstore"
	"github.com/jrsteele09/go-session-client/internal/config"
	_ "github.com/lib/pq"
)

// storeOpener returns the credential store and a function releasing it
type storeOpener func(ctx context.Context) (credstore.Store, func(), error)

func openConfiguredStore(cfg config.ClientConfig) storeOpener {
	return func(ctx context.Context) (credstore.Store, func(), error) {
		switch cfg.GetStoreDriver() {
		case config.StoreDriverMemory:
			return memstore.New(), func() {}, nil
		case config.StoreDriverPostgres:
			if cfg.GetDatabaseURL() == "" {
				return nil, nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
			}
			db, err := sql.Open("postgres", cfg.GetDatabaseURL())
			if err != nil {
				return nil, nil, fmt.Errorf("sql.Open: %w", err)
			}
			store, err := pgstore.New(ctx, db)
			if err != nil {
				_ = db.Close()
				return nil, nil, err
			}
			return store, func() { _ = db.Close() }, nil
		default:
			store, err := filestore.New(cfg.GetStorePath())
			if err != nil {
				return nil, nil, err
			}
			return store, func() {}, nil
		}
	}
}
