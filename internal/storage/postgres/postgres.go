// Package postgres implements the storage.Backend interface on PostgreSQL.
// It wraps the GORM backend and owns the connection.
package postgres

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/ubivismedia/aircraft/internal/config"
	"github.com/ubivismedia/aircraft/internal/database"
	"github.com/ubivismedia/aircraft/internal/logging"
	gormstorage "github.com/ubivismedia/aircraft/internal/storage/gorm"

	"gorm.io/gorm"
)

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	// DB is used as-is when set; otherwise Init connects using Config.
	DB         *gorm.DB
	Config     config.PostgresConfig
	LogManager *logging.SlogManager
	// DBLogger receives connection events when Init connects.
	DBLogger zerolog.Logger
}

// Backend wraps the GORM backend for Postgres-specific behavior.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies
	mgr  *database.Manager
}

// New creates a new Postgres storage backend.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Backend{
		deps: deps,
	}
}

// Init connects if no DB was injected, validates the connection and migrates
// the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		mgr := database.NewManager(b.deps.DBLogger.With().Str("backend", "postgres").Logger())
		if err := mgr.Connect(config.StorageConfig{Type: "postgres", Postgres: b.deps.Config}); err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		b.mgr = mgr
		b.deps.DB = mgr.DB
	} else if _, err := database.Validate(b.deps.DB); err != nil {
		return err
	}
	b.deps.LogManager.WriteLog("postgres:Init", fmt.Sprintf("Connected to %s/%s", b.deps.Config.Host, b.deps.Config.Database), "INFO")

	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:         b.deps.DB,
		LogManager: b.deps.LogManager,
	})
	return b.Backend.Init()
}

// Close closes the connection.
func (b *Backend) Close() error {
	if b.mgr != nil {
		return b.mgr.Close()
	}
	if b.deps.DB == nil {
		return nil
	}
	sqlDB, err := b.deps.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}
