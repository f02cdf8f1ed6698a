package engine

import (
	"fmt"

	"github.com/ubivismedia/aircraft/pkg/core"
	"github.com/ubivismedia/aircraft/pkg/host"
)

// BlockRecorder is the write half of the ledger.
type BlockRecorder interface {
	RecordBlock(rec core.BlockRecord) error
}

// RecordingSink applies each placement to a world and then records it in the
// ledger under one structure. After the first ledger failure it stops
// applying, so the world never runs ahead of the ledger by more than one
// block.
type RecordingSink struct {
	world  host.World
	ledger BlockRecorder
	id     core.StructureID
	count  int
	err    error
}

var _ host.World = (*RecordingSink)(nil)

// NewRecordingSink wraps world so every placement is recorded for id.
func NewRecordingSink(world host.World, ledger BlockRecorder, id core.StructureID) *RecordingSink {
	return &RecordingSink{world: world, ledger: ledger, id: id}
}

// Name returns the wrapped world's name.
func (s *RecordingSink) Name() string {
	return s.world.Name()
}

// SetBlock applies and records one placement.
func (s *RecordingSink) SetBlock(pos core.Position, material core.Material) {
	if s.err != nil {
		return
	}
	s.world.SetBlock(pos, material)
	if err := s.ledger.RecordBlock(core.BlockRecord{StructureID: s.id, Position: pos, Material: material}); err != nil {
		s.err = fmt.Errorf("failed to record block %s: %w", pos, err)
		return
	}
	s.count++
}

// Count returns the number of placements applied and recorded.
func (s *RecordingSink) Count() int {
	return s.count
}

// Err returns the first ledger failure, if any.
func (s *RecordingSink) Err() error {
	return s.err
}

// CountingSink counts placements passing through to a world.
type CountingSink struct {
	world host.World
	count int
}

var _ host.World = (*CountingSink)(nil)

// NewCountingSink wraps world.
func NewCountingSink(world host.World) *CountingSink {
	return &CountingSink{world: world}
}

func (s *CountingSink) Name() string {
	return s.world.Name()
}

func (s *CountingSink) SetBlock(pos core.Position, material core.Material) {
	s.world.SetBlock(pos, material)
	s.count++
}

// Count returns the number of placements applied.
func (s *CountingSink) Count() int {
	return s.count
}

// Apply sends placements to sink in order and returns how many were sent.
func Apply(sink host.World, placements []core.Placement) int {
	for _, p := range placements {
		sink.SetBlock(p.Position, p.Material)
	}
	return len(placements)
}
