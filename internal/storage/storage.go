// internal/storage/storage.go
package storage

import (
	"errors"
	"fmt"
	"iter"

	"github.com/ubivismedia/aircraft/pkg/core"
)

var (
	// ErrInvalidKey is returned when a structure key has an empty owner or name.
	ErrInvalidKey = errors.New("invalid structure key")
	// ErrNotFound is returned when a structure or build does not exist.
	ErrNotFound = errors.New("not found")
)

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	Registry
	Ledger
}

// Registry holds one metadata row per (owner, name).
type Registry interface {
	// UpsertStructure inserts or replaces the metadata row. The material is
	// reset and s.Seq is set to the new creation order.
	UpsertStructure(s *core.Structure) error
	// FindLatestUnmaterialized returns the most recently upserted structure of
	// owner that has no material yet.
	FindLatestUnmaterialized(owner string) (core.StructureID, bool, error)
	SetMaterial(id core.StructureID, material core.Material) error
	GetStructure(id core.StructureID) (core.Structure, error)
	// ListStructures returns owner's structures in creation order.
	ListStructures(owner string) ([]core.Structure, error)

	// Build audit (assigns ID and CreatedAt on the passed pointer)
	RecordBuild(b *core.Build) error
	LatestBuild(id core.StructureID) (core.Build, error)
}

// Ledger holds the absolute block placements of every structure.
type Ledger interface {
	// RecordBlock upserts one row; recording the same coordinate twice keeps
	// the last material.
	RecordBlock(rec core.BlockRecord) error
	// FetchBlocks yields every row of (owner, name) in no particular order.
	// An error ends the sequence.
	FetchBlocks(owner, name string) iter.Seq2[core.BlockRecord, error]
	CountBlocks(owner, name string) (int64, error)
}

// ValidateID returns ErrInvalidKey if either part of id is empty.
func ValidateID(id core.StructureID) error {
	if id.Owner == "" || id.Name == "" {
		return fmt.Errorf("%w: owner=%q name=%q", ErrInvalidKey, id.Owner, id.Name)
	}
	return nil
}
