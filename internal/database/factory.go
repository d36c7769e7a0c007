package database

import (
	"fmt"
	"os"
	"path/filepath"

	"prax-go/internal/config"
	"prax-go/internal/prax"
)

// NewStoreFromConfig opens the record store described by cfg.
// A file-backed store is migrated to the latest schema on open; an in-memory
// store always starts empty and is migrated as well.
func NewStoreFromConfig(cfg config.DatabaseConfig, hostID string, clock prax.Clock) (*SQLiteStore, error) {
	var path string
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		path = filepath.Join(cfg.DataDir, hostID+".db")
	case "memory":
		path = memoryPath
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}

	store, err := NewSQLiteStore(path, clock)
	if err != nil {
		return nil, err
	}
	if err := store.MigrateUp(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrating store: %w", err)
	}
	return store, nil
}
