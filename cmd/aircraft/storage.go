package main

import (
	"fmt"

	"github.com/ubivismedia/aircraft/internal/config"
	"github.com/ubivismedia/aircraft/internal/storage"
	"github.com/ubivismedia/aircraft/internal/storage/memory"
	pgstorage "github.com/ubivismedia/aircraft/internal/storage/postgres"
	sqlitestorage "github.com/ubivismedia/aircraft/internal/storage/sqlite"
)

func initStorage() error {
	Logger.Debug("Initializing storage")

	storageCfg := config.GetStorageConfig()

	backend, err := createStorageBackend(storageCfg)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		return err
	}
	if err := backend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err)
		return err
	}
	storageBackend = backend
	return nil
}

func createStorageBackend(storageCfg config.StorageConfig) (storage.Backend, error) {
	switch storageCfg.Type {
	case "postgres":
		Logger.Info("Postgres storage backend initialized", "host", storageCfg.Postgres.Host, "database", storageCfg.Postgres.Database)
		return pgstorage.New(pgstorage.Dependencies{
			Config:     storageCfg.Postgres,
			LogManager: SlogManager,
			DBLogger:   ZLogger,
		}), nil

	case "sqlite":
		backend, err := sqlitestorage.New(storageCfg.SQLite, SlogManager, ZLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite backend: %w", err)
		}
		Logger.Info("SQLite storage backend initialized", "path", storageCfg.SQLite.Path, "inMemory", storageCfg.SQLite.InMemory)
		return backend, nil

	case "memory", "":
		Logger.Info("Memory storage backend initialized", "snapshot", storageCfg.Memory.SnapshotPath)
		return memory.New(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageCfg.Type)
	}
}
