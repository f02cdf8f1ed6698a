// Package sqlitestorage implements the storage.Backend interface on SQLite.
// It wraps the GORM backend and adds two concerns: owning the connection and,
// in in-memory mode, restoring from and periodically dumping to the database
// file via VACUUM INTO.
package sqlitestorage

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/ubivismedia/aircraft/internal/config"
	"github.com/ubivismedia/aircraft/internal/database"
	"github.com/ubivismedia/aircraft/internal/logging"
	"github.com/ubivismedia/aircraft/internal/model"
	gormstorage "github.com/ubivismedia/aircraft/internal/storage/gorm"

	"gorm.io/gorm"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	mgr      *database.Manager
	db       *gorm.DB
	cfg      config.SQLiteConfig
	log      *logging.SlogManager
	stopChan chan struct{}
	stopOnce sync.Once
	done     sync.WaitGroup
}

// New opens the database file, or a private in-memory database when
// cfg.InMemory is set. dbLog receives the connection and dump events.
func New(cfg config.SQLiteConfig, logManager *logging.SlogManager, dbLog zerolog.Logger) (*Backend, error) {
	if logManager == nil {
		logManager = logging.NewSlogManager()
	}

	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("sqlite path not set")
	}

	mgr := database.NewManager(dbLog.With().Str("backend", "sqlite").Logger())
	if err := mgr.Connect(config.StorageConfig{Type: "sqlite", SQLite: cfg}); err != nil {
		return nil, err
	}

	gormBackend := gormstorage.New(gormstorage.Dependencies{
		DB:         mgr.DB,
		LogManager: logManager,
	})

	return &Backend{
		Backend:  gormBackend,
		mgr:      mgr,
		db:       mgr.DB,
		cfg:      cfg,
		log:      logManager,
		stopChan: make(chan struct{}),
	}, nil
}

// Init migrates the schema, restores the dump file in in-memory mode and
// starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if !b.cfg.InMemory || b.cfg.Path == "" {
		return nil
	}

	if err := b.restore(); err != nil {
		return err
	}

	if b.cfg.DumpInterval > 0 {
		b.done.Add(1)
		go b.dumpLoop()
	}
	return nil
}

// Close stops the dump goroutine, writes a final dump in in-memory mode and
// closes the connection.
func (b *Backend) Close() error {
	b.stopOnce.Do(func() { close(b.stopChan) })
	b.done.Wait()

	var dumpErr error
	if b.cfg.InMemory && b.cfg.Path != "" {
		dumpErr = b.Dump()
	}

	return errors.Join(dumpErr, b.Backend.Close(), b.mgr.Close())
}

// Dump writes a point-in-time copy of the in-memory database to the
// configured path.
func (b *Backend) Dump() error {
	if !b.cfg.InMemory {
		return errors.New("dump requires in-memory mode")
	}
	return b.mgr.DumpMemoryToDisk(b.cfg.Path)
}

// restore copies every table from an existing dump file into the in-memory
// database.
func (b *Backend) restore() error {
	if _, err := os.Stat(b.cfg.Path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err := b.db.Exec("ATTACH DATABASE ? AS disk", b.cfg.Path).Error; err != nil {
		return fmt.Errorf("failed to attach %s: %w", b.cfg.Path, err)
	}
	defer b.db.Exec("DETACH DATABASE disk")

	for _, m := range model.DatabaseModels {
		stmt := &gorm.Statement{DB: b.db}
		if err := stmt.Parse(m); err != nil {
			return fmt.Errorf("failed to parse model: %w", err)
		}
		table := stmt.Schema.Table
		sql := fmt.Sprintf("INSERT OR REPLACE INTO main.%s SELECT * FROM disk.%s", table, table)
		if err := b.db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to restore table %s: %w", table, err)
		}
	}

	b.log.WriteLog("sqlite:restore", fmt.Sprintf("Restored in-memory DB from %s", b.cfg.Path), "INFO")
	return nil
}

// dumpLoop periodically dumps the in-memory SQLite database to disk via VACUUM INTO.
// VACUUM INTO creates a point-in-time snapshot, so no pause mechanism is needed.
func (b *Backend) dumpLoop() {
	defer b.done.Done()

	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Dump(); err != nil {
				b.log.WriteLog("sqlite:dumpLoop", fmt.Sprintf("Error dumping to disk: %v", err), "ERROR")
			}
		}
	}
}
