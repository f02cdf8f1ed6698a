// Package gormstorage implements the storage.Backend interface on any GORM
// dialect. The SQLite and Postgres backends embed it and only add connection
// handling.
package gormstorage

import (
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/ubivismedia/aircraft/internal/database"
	"github.com/ubivismedia/aircraft/internal/logging"
	"github.com/ubivismedia/aircraft/internal/model"
	"github.com/ubivismedia/aircraft/internal/model/convert"
	"github.com/ubivismedia/aircraft/internal/storage"
	"github.com/ubivismedia/aircraft/pkg/core"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB         *gorm.DB
	LogManager *logging.SlogManager
}

// Backend implements storage.Backend with one statement per call.
type Backend struct {
	deps Dependencies
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.LogManager == nil {
		deps.LogManager = logging.NewSlogManager()
	}
	return &Backend{
		deps: deps,
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm backend: no database connection")
	}
	b.deps.LogManager.WriteLog("gorm:Init", "Migrating schema", "INFO")
	if err := database.Migrate(b.deps.DB); err != nil {
		b.deps.LogManager.WriteLog("gorm:Init", fmt.Sprintf("Failed to migrate schema: %s", err), "ERROR")
		return err
	}
	return nil
}

// Close is a no-op; the connection belongs to whoever opened it.
func (b *Backend) Close() error {
	return nil
}

// UpsertStructure replaces the metadata row of s with a fresh, unmaterialized one.
func (b *Backend) UpsertStructure(s *core.Structure) error {
	if err := storage.ValidateID(s.StructureID); err != nil {
		return err
	}

	var maxSeq uint64
	if err := b.deps.DB.Model(&model.Structure{}).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error; err != nil {
		return fmt.Errorf("failed to read structure sequence: %w", err)
	}

	s.Material = ""
	s.Seq = maxSeq + 1
	row := convert.CoreToStructure(*s)
	row.UpdatedAt = time.Now()

	if err := b.deps.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"seats_per_row", "row_count", "material", "seq", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to upsert structure %s/%s: %w", s.Owner, s.Name, err)
	}
	return nil
}

// FindLatestUnmaterialized returns the unmaterialized structure of owner with the highest seq.
func (b *Backend) FindLatestUnmaterialized(owner string) (core.StructureID, bool, error) {
	var rows []model.Structure
	if err := b.deps.DB.
		Where("owner = ? AND material IS NULL", owner).
		Order("seq DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return core.StructureID{}, false, fmt.Errorf("failed to query latest structure of %s: %w", owner, err)
	}
	if len(rows) == 0 {
		return core.StructureID{}, false, nil
	}
	return core.StructureID{Owner: rows[0].Owner, Name: rows[0].Name}, true, nil
}

// SetMaterial sets the material of an existing structure.
func (b *Backend) SetMaterial(id core.StructureID, material core.Material) error {
	if err := storage.ValidateID(id); err != nil {
		return err
	}

	res := b.deps.DB.Model(&model.Structure{}).
		Where("owner = ? AND name = ?", id.Owner, id.Name).
		Updates(map[string]any{
			"material":   string(material),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to set material of %s/%s: %w", id.Owner, id.Name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("structure %s/%s: %w", id.Owner, id.Name, storage.ErrNotFound)
	}
	return nil
}

// GetStructure returns the metadata row of id.
func (b *Backend) GetStructure(id core.StructureID) (core.Structure, error) {
	if err := storage.ValidateID(id); err != nil {
		return core.Structure{}, err
	}

	var row model.Structure
	err := b.deps.DB.Where("owner = ? AND name = ?", id.Owner, id.Name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.Structure{}, fmt.Errorf("structure %s/%s: %w", id.Owner, id.Name, storage.ErrNotFound)
	}
	if err != nil {
		return core.Structure{}, fmt.Errorf("failed to get structure %s/%s: %w", id.Owner, id.Name, err)
	}
	return convert.StructureToCore(row), nil
}

// ListStructures returns owner's structures in creation order.
func (b *Backend) ListStructures(owner string) ([]core.Structure, error) {
	var rows []model.Structure
	if err := b.deps.DB.Where("owner = ?", owner).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list structures of %s: %w", owner, err)
	}

	out := make([]core.Structure, 0, len(rows))
	for _, row := range rows {
		out = append(out, convert.StructureToCore(row))
	}
	return out, nil
}

// RecordBuild inserts an audit row and assigns its ID and CreatedAt.
func (b *Backend) RecordBuild(build *core.Build) error {
	if err := storage.ValidateID(build.StructureID); err != nil {
		return err
	}

	row, err := convert.CoreToBuild(*build)
	if err != nil {
		return fmt.Errorf("failed to record build of %s/%s: %w", build.Owner, build.Name, err)
	}
	if err := b.deps.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record build of %s/%s: %w", build.Owner, build.Name, err)
	}
	build.ID = row.ID
	build.CreatedAt = row.CreatedAt
	return nil
}

// LatestBuild returns the most recent audit row of id.
func (b *Backend) LatestBuild(id core.StructureID) (core.Build, error) {
	if err := storage.ValidateID(id); err != nil {
		return core.Build{}, err
	}

	var rows []model.StructureBuild
	if err := b.deps.DB.
		Where("owner = ? AND name = ?", id.Owner, id.Name).
		Order("id DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return core.Build{}, fmt.Errorf("failed to query builds of %s/%s: %w", id.Owner, id.Name, err)
	}
	if len(rows) == 0 {
		return core.Build{}, fmt.Errorf("build of %s/%s: %w", id.Owner, id.Name, storage.ErrNotFound)
	}
	return convert.BuildToCore(rows[0]), nil
}

// RecordBlock upserts one ledger row.
func (b *Backend) RecordBlock(rec core.BlockRecord) error {
	if err := storage.ValidateID(rec.StructureID); err != nil {
		return err
	}

	row := convert.CoreToBlock(rec)
	if err := b.deps.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "structure_name"}, {Name: "owner"}, {Name: "x"}, {Name: "y"}, {Name: "z"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"material"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record block %s of %s/%s: %w", rec.Position, rec.Owner, rec.Name, err)
	}
	return nil
}

// FetchBlocks streams the ledger rows of (owner, name) from an open cursor.
// The cursor holds the connection until iteration ends.
func (b *Backend) FetchBlocks(owner, name string) iter.Seq2[core.BlockRecord, error] {
	return func(yield func(core.BlockRecord, error) bool) {
		if err := storage.ValidateID(core.StructureID{Owner: owner, Name: name}); err != nil {
			yield(core.BlockRecord{}, err)
			return
		}

		rows, err := b.deps.DB.Model(&model.StructureBlock{}).
			Where("owner = ? AND structure_name = ?", owner, name).
			Rows()
		if err != nil {
			yield(core.BlockRecord{}, fmt.Errorf("failed to fetch blocks of %s/%s: %w", owner, name, err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var row model.StructureBlock
			if err := b.deps.DB.ScanRows(rows, &row); err != nil {
				yield(core.BlockRecord{}, fmt.Errorf("failed to scan block of %s/%s: %w", owner, name, err))
				return
			}
			if !yield(convert.BlockToCore(row), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(core.BlockRecord{}, fmt.Errorf("failed to read blocks of %s/%s: %w", owner, name, err))
		}
	}
}

// CountBlocks returns the number of ledger rows of (owner, name).
func (b *Backend) CountBlocks(owner, name string) (int64, error) {
	if err := storage.ValidateID(core.StructureID{Owner: owner, Name: name}); err != nil {
		return 0, err
	}

	var n int64
	if err := b.deps.DB.Model(&model.StructureBlock{}).
		Where("owner = ? AND structure_name = ?", owner, name).
		Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count blocks of %s/%s: %w", owner, name, err)
	}
	return n, nil
}
