// internal/storage/memory/snapshot.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ubivismedia/aircraft/pkg/core"
)

// Snapshot is the on-disk form of the memory backend.
type Snapshot struct {
	Version    int             `json:"version"`
	SavedAt    time.Time       `json:"savedAt"`
	Seq        uint64          `json:"seq"`
	Structures []StructureJSON `json:"structures"`
	Blocks     []BlockJSON     `json:"blocks"`
	Builds     []BuildJSON     `json:"builds"`
}

// StructureJSON is one registry entry
type StructureJSON struct {
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	SeatsPerRow int    `json:"seatsPerRow"`
	RowCount    int    `json:"rowCount"`
	Material    string `json:"material,omitempty"`
	Seq         uint64 `json:"seq"`
}

// BlockJSON is one ledger entry; Pos is [x, y, z]
type BlockJSON struct {
	Owner    string `json:"owner"`
	Name     string `json:"name"`
	Pos      [3]int `json:"pos"`
	Material string `json:"material"`
}

// BuildJSON is one audit entry
type BuildJSON struct {
	ID        uint           `json:"id"`
	Owner     string         `json:"owner"`
	Name      string         `json:"name"`
	Mode      string         `json:"mode"`
	Origin    [3]int         `json:"origin"`
	Blocks    int            `json:"blocks"`
	Params    map[string]any `json:"params,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

const snapshotVersion = 1

// isGzipPath reports whether path should be read and written compressed.
func isGzipPath(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

// snapshotPath returns the configured path, adding .gz when compression is on.
func (b *Backend) snapshotPath() string {
	p := b.cfg.SnapshotPath
	if b.cfg.CompressOutput && !isGzipPath(p) {
		p += ".gz"
	}
	return p
}

// SnapshotPath returns the file Close writes to, or "" when snapshots are off.
func (b *Backend) SnapshotPath() string {
	if b.cfg.SnapshotPath == "" {
		return ""
	}
	return b.snapshotPath()
}

// buildSnapshot must be called with b.mu held.
func (b *Backend) buildSnapshot() Snapshot {
	snap := Snapshot{
		Version:    snapshotVersion,
		SavedAt:    time.Now().UTC(),
		Seq:        b.seq,
		Structures: make([]StructureJSON, 0, len(b.structures)),
		Blocks:     make([]BlockJSON, 0, len(b.blocks)),
		Builds:     make([]BuildJSON, 0, len(b.builds)),
	}

	for _, s := range b.structures {
		snap.Structures = append(snap.Structures, StructureJSON{
			Owner:       s.Owner,
			Name:        s.Name,
			SeatsPerRow: s.SeatsPerRow,
			RowCount:    s.RowCount,
			Material:    string(s.Material),
			Seq:         s.Seq,
		})
	}
	for k, m := range b.blocks {
		snap.Blocks = append(snap.Blocks, BlockJSON{
			Owner:    k.Owner,
			Name:     k.Name,
			Pos:      [3]int{k.X, k.Y, k.Z},
			Material: string(m),
		})
	}
	for _, bd := range b.builds {
		snap.Builds = append(snap.Builds, BuildJSON{
			ID:        bd.ID,
			Owner:     bd.Owner,
			Name:      bd.Name,
			Mode:      string(bd.Mode),
			Origin:    [3]int{bd.Origin.X, bd.Origin.Y, bd.Origin.Z},
			Blocks:    bd.Blocks,
			Params:    bd.Params,
			CreatedAt: bd.CreatedAt,
		})
	}
	return snap
}

// applySnapshot replaces the backend state. Must be called with b.mu held.
func (b *Backend) applySnapshot(snap Snapshot) error {
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	structures := make(map[core.StructureID]*core.Structure, len(snap.Structures))
	for _, s := range snap.Structures {
		id := core.StructureID{Owner: s.Owner, Name: s.Name}
		structures[id] = &core.Structure{
			StructureID: id,
			SeatsPerRow: s.SeatsPerRow,
			RowCount:    s.RowCount,
			Material:    core.Material(s.Material),
			Seq:         s.Seq,
		}
		if s.Seq > snap.Seq {
			snap.Seq = s.Seq
		}
	}

	blocks := make(map[blockKey]core.Material, len(snap.Blocks))
	for _, bl := range snap.Blocks {
		key := blockKey{
			StructureID: core.StructureID{Owner: bl.Owner, Name: bl.Name},
			Position:    core.Position{X: bl.Pos[0], Y: bl.Pos[1], Z: bl.Pos[2]},
		}
		blocks[key] = core.Material(bl.Material)
	}

	builds := make([]core.Build, 0, len(snap.Builds))
	var maxBuildID uint
	for _, bd := range snap.Builds {
		builds = append(builds, core.Build{
			ID:          bd.ID,
			StructureID: core.StructureID{Owner: bd.Owner, Name: bd.Name},
			Mode:        core.BuildMode(bd.Mode),
			Origin:      core.Position{X: bd.Origin[0], Y: bd.Origin[1], Z: bd.Origin[2]},
			Blocks:      bd.Blocks,
			Params:      bd.Params,
			CreatedAt:   bd.CreatedAt,
		})
		if bd.ID > maxBuildID {
			maxBuildID = bd.ID
		}
	}

	b.structures = structures
	b.blocks = blocks
	b.builds = builds
	b.seq = snap.Seq
	b.buildID = maxBuildID
	return nil
}

// restore loads the snapshot file; a missing file leaves the backend empty.
func (b *Backend) restore() error {
	path := b.snapshotPath()
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if isGzipPath(path) {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to open gzip snapshot: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	return b.applySnapshot(snap)
}

// export writes the snapshot file atomically. Must be called with b.mu held.
func (b *Backend) export() error {
	path := b.snapshotPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp := path + ".tmp"
	if isGzipPath(path) {
		if err := writeGzipJSON(tmp, b.buildSnapshot()); err != nil {
			return err
		}
	} else {
		if err := writeJSON(tmp, b.buildSnapshot()); err != nil {
			return err
		}
	}
	return os.Rename(tmp, path)
}

func writeJSON(path string, data Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	if err := json.NewEncoder(gzWriter).Encode(data); err != nil {
		gzWriter.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return gzWriter.Close()
}
