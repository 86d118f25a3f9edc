// Package backend picks the storage.Storage implementation named in the
// configuration. It exists so both binaries share one switch.
package backend

import (
	"context"
	"fmt"

	"github.com/aanand-mishra/enrollment-api/internal/config"
	"github.com/aanand-mishra/enrollment-api/internal/storage"
	"github.com/aanand-mishra/enrollment-api/internal/storage/postgres"
	"github.com/aanand-mishra/enrollment-api/internal/storage/sqlite"
)

// Open returns the configured store. The caller owns it and must Close it.
func Open(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		store, err := sqlite.New(cfg)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("backend.Open: unknown storage driver %q", cfg.StorageDriver)
	}
}

// Describe returns a log-friendly location for the configured store,
// without credentials.
func Describe(cfg *config.Config) string {
	if cfg.StorageDriver == config.DriverSQLite {
		return cfg.StoragePath
	}
	return cfg.StorageDriver
}
