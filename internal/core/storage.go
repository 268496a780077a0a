package core

import (
	"context"
	"fmt"
	"os"

	"stepgen/internal/infra/persistence/memory"
	"stepgen/internal/infra/persistence/postgres"
	"stepgen/internal/infra/persistence/sqlite"
	"stepgen/pkg/domain"
)

// StorageDriver identifies a simulation history backend.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageConfig selects and configures a history backend.
type StorageConfig struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
}

// StorageConfigFromEnv reads the history backend settings. Defaults to sqlite
// when unset.
//
//	STEPGEN_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	STEPGEN_SQLITE_PATH: path to sqlite file (default ./stepgen.db)
//	STEPGEN_POSTGRES_DSN: postgres DSN when driver=postgres
func StorageConfigFromEnv() StorageConfig {
	driver := os.Getenv("STEPGEN_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageSQLite)
	}
	return StorageConfig{
		Driver:      StorageDriver(driver),
		SQLitePath:  os.Getenv("STEPGEN_SQLITE_PATH"),
		PostgresDSN: os.Getenv("STEPGEN_POSTGRES_DSN"),
	}
}

// OpenHistoryStore opens the backend named by cfg.
func OpenHistoryStore(ctx context.Context, cfg StorageConfig) (domain.HistoryStore, error) {
	switch cfg.Driver {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite, "":
		store, err := sqlite.NewStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoragePostgres:
		store, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}
