// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/ubivismedia/aircraft/internal/config"
	"github.com/ubivismedia/aircraft/internal/storage"
	"github.com/ubivismedia/aircraft/pkg/core"
)

// blockKey mirrors the ledger primary key.
type blockKey struct {
	core.StructureID
	core.Position
}

// Backend keeps the registry and the ledger in maps. With a snapshot path
// configured it survives restarts through a JSON snapshot.
type Backend struct {
	cfg config.MemoryConfig

	structures map[core.StructureID]*core.Structure
	blocks     map[blockKey]core.Material
	builds     []core.Build

	seq     uint64
	buildID uint
	mu      sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:        cfg,
		structures: make(map[core.StructureID]*core.Structure),
		blocks:     make(map[blockKey]core.Material),
	}
}

// Init restores the snapshot if one is configured and present.
func (b *Backend) Init() error {
	if b.cfg.SnapshotPath == "" {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.restore()
}

// Close writes the snapshot if one is configured.
func (b *Backend) Close() error {
	if b.cfg.SnapshotPath == "" {
		return nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.export()
}

// UpsertStructure inserts or replaces the metadata of s.
func (b *Backend) UpsertStructure(s *core.Structure) error {
	if err := storage.ValidateID(s.StructureID); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	s.Material = ""
	s.Seq = b.seq

	stored := *s
	b.structures[s.StructureID] = &stored
	return nil
}

// FindLatestUnmaterialized returns the unmaterialized structure of owner with the highest seq.
func (b *Backend) FindLatestUnmaterialized(owner string) (core.StructureID, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var latest *core.Structure
	for id, s := range b.structures {
		if id.Owner != owner || s.HasMaterial() {
			continue
		}
		if latest == nil || s.Seq > latest.Seq {
			latest = s
		}
	}
	if latest == nil {
		return core.StructureID{}, false, nil
	}
	return latest.StructureID, true, nil
}

// SetMaterial sets the material of an existing structure.
func (b *Backend) SetMaterial(id core.StructureID, material core.Material) error {
	if err := storage.ValidateID(id); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.structures[id]
	if !ok {
		return fmt.Errorf("structure %s/%s: %w", id.Owner, id.Name, storage.ErrNotFound)
	}
	s.Material = material
	return nil
}

// GetStructure looks up a structure by id
func (b *Backend) GetStructure(id core.StructureID) (core.Structure, error) {
	if err := storage.ValidateID(id); err != nil {
		return core.Structure{}, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	s, ok := b.structures[id]
	if !ok {
		return core.Structure{}, fmt.Errorf("structure %s/%s: %w", id.Owner, id.Name, storage.ErrNotFound)
	}
	return *s, nil
}

// ListStructures returns owner's structures in creation order.
func (b *Backend) ListStructures(owner string) ([]core.Structure, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.Structure, 0)
	for id, s := range b.structures {
		if id.Owner == owner {
			out = append(out, *s)
		}
	}
	slices.SortFunc(out, func(a, c core.Structure) int {
		switch {
		case a.Seq < c.Seq:
			return -1
		case a.Seq > c.Seq:
			return 1
		}
		return 0
	})
	return out, nil
}

// RecordBuild appends an audit entry and assigns its ID and CreatedAt.
func (b *Backend) RecordBuild(build *core.Build) error {
	if err := storage.ValidateID(build.StructureID); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.buildID++
	build.ID = b.buildID
	if build.CreatedAt.IsZero() {
		build.CreatedAt = time.Now()
	}
	b.builds = append(b.builds, *build)
	return nil
}

// LatestBuild returns the most recent audit entry of id.
func (b *Backend) LatestBuild(id core.StructureID) (core.Build, error) {
	if err := storage.ValidateID(id); err != nil {
		return core.Build{}, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for i := len(b.builds) - 1; i >= 0; i-- {
		if b.builds[i].StructureID == id {
			return b.builds[i], nil
		}
	}
	return core.Build{}, fmt.Errorf("build of %s/%s: %w", id.Owner, id.Name, storage.ErrNotFound)
}

// RecordBlock upserts one ledger entry.
func (b *Backend) RecordBlock(rec core.BlockRecord) error {
	if err := storage.ValidateID(rec.StructureID); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.blocks[blockKey{rec.StructureID, rec.Position}] = rec.Material
	return nil
}

// FetchBlocks yields a copy of the ledger entries of (owner, name) taken when
// iteration starts.
func (b *Backend) FetchBlocks(owner, name string) iter.Seq2[core.BlockRecord, error] {
	return func(yield func(core.BlockRecord, error) bool) {
		id := core.StructureID{Owner: owner, Name: name}
		if err := storage.ValidateID(id); err != nil {
			yield(core.BlockRecord{}, err)
			return
		}

		b.mu.RLock()
		var recs []core.BlockRecord
		for k, m := range b.blocks {
			if k.StructureID == id {
				recs = append(recs, core.BlockRecord{StructureID: id, Position: k.Position, Material: m})
			}
		}
		b.mu.RUnlock()

		for _, rec := range recs {
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// CountBlocks returns the number of ledger entries of (owner, name).
func (b *Backend) CountBlocks(owner, name string) (int64, error) {
	id := core.StructureID{Owner: owner, Name: name}
	if err := storage.ValidateID(id); err != nil {
		return 0, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	var n int64
	for k := range b.blocks {
		if k.StructureID == id {
			n++
		}
	}
	return n, nil
}
