package main

import (
	"context"
	"fmt"

	"github.com/goliatone/go-settings/pkg/storage"
)

// openBackend opens the configured storage driver. The returned closer
// releases its connections.
func openBackend(ctx context.Context, cfg StorageConfig) (storage.Backend, func() error, error) {
	switch cfg.Driver {
	case "", "sqlite":
		db, err := storage.OpenSQLite(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case "postgres", "postgresql":
		pool, err := storage.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return pool, func() error { pool.Close(); return nil }, nil
	case "memory":
		return storage.NewMemory(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("storage.driver: unknown driver %q", cfg.Driver)
	}
}
