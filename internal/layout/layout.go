// Package layout generates the block placements for aircraft structures.
// All generators are pure: the same inputs always yield the same ordered
// placements, and nothing here touches a world or a store.
package layout

import (
	"errors"
	"fmt"

	"github.com/ubivismedia/aircraft/pkg/core"
)

var (
	// ErrInvalidGeometry is returned when seat geometry cannot be laid out.
	ErrInvalidGeometry = errors.New("invalid seat geometry")
	// ErrGridTooLarge is returned when a grid would exceed MaxGridBlocks.
	ErrGridTooLarge = errors.New("grid exceeds the block limit")
)

// MaxGridBlocks bounds the placements a single Grid may emit.
const MaxGridBlocks = 1 << 22

// SilhouetteBlocks is the number of placements Silhouette always emits.
const SilhouetteBlocks = 2 + 2 + 3*9 + 2*2*5 + 3 + 4*3 + 2

// builder collects placements relative to an origin.
type builder struct {
	origin     core.Position
	placements []core.Placement
}

func newBuilder(origin core.Position, capacity int) *builder {
	return &builder{
		origin:     origin,
		placements: make([]core.Placement, 0, capacity),
	}
}

func (b *builder) set(dx, dy, dz int, m core.Material) {
	b.placements = append(b.placements, core.Placement{
		Position: b.origin.Add(dx, dy, dz),
		Material: m,
	})
}

// Silhouette lays out the aircraft shape around origin: canopy, control
// panel, curved fuselage, wings, tail fin, passenger and cockpit seats.
// Only the hull uses material; canopy, controls and seats are fixed.
func Silhouette(origin core.Position, material core.Material) []core.Placement {
	b := newBuilder(origin, SilhouetteBlocks)

	// cockpit canopy
	b.set(0, 0, 0, core.Glass)
	b.set(0, 1, 0, core.Glass)

	// control panel
	b.set(0, 0, -1, core.StoneButton)
	b.set(0, 0, -2, core.Lever)

	// fuselage, centre column one block higher
	for x := -1; x <= 1; x++ {
		for z := -4; z <= 4; z++ {
			lift := 0
			if x == 0 {
				lift = 1
			}
			b.set(x, lift, z, material)
		}
	}

	// wings
	for z := -2; z <= 2; z++ {
		for x := -3; x <= -2; x++ {
			b.set(x, 2, z, material)
		}
		for x := 2; x <= 3; x++ {
			b.set(x, 2, z, material)
		}
	}

	// tail fin
	for dy := 2; dy <= 4; dy++ {
		b.set(0, dy, 4, material)
	}

	// passenger seats
	for z := -3; z <= 3; z += 2 {
		b.set(0, 1, z, core.StoneSlab)
		b.set(-1, 1, z, core.StoneSlab)
		b.set(1, 1, z, core.StoneSlab)
	}

	// cockpit seats
	b.set(0, 1, -4, core.StoneSlab)
	b.set(-1, 1, -4, core.StoneSlab)

	return b.placements
}

// GridBlocks returns the number of placements Grid emits for the geometry.
// Non-positive counts and grids above MaxGridBlocks are rejected before any
// product is taken, so the result never overflows.
func GridBlocks(seatsPerRow, rowCount int) (int, error) {
	if seatsPerRow <= 0 || rowCount <= 0 {
		return 0, fmt.Errorf("grid %dx%d: %w", seatsPerRow, rowCount, ErrInvalidGeometry)
	}
	if seatsPerRow > MaxGridBlocks || rowCount > MaxGridBlocks ||
		seatsPerRow+2 > MaxGridBlocks/(rowCount+2) {
		return 0, fmt.Errorf("grid %dx%d: %w: %w", seatsPerRow, rowCount, ErrInvalidGeometry, ErrGridTooLarge)
	}
	n := (seatsPerRow+2)*(rowCount+2) + seatsPerRow*rowCount
	if n > MaxGridBlocks {
		return 0, fmt.Errorf("grid %dx%d: %w: %w", seatsPerRow, rowCount, ErrInvalidGeometry, ErrGridTooLarge)
	}
	return n, nil
}

// Grid lays out the seat grid: an iron platform over x in [-1,seatsPerRow],
// z in [-1,rowCount] at origin height, then one seat per cell of
// [0,seatsPerRow) x [0,rowCount) one level above.
func Grid(origin core.Position, seatsPerRow, rowCount int) ([]core.Placement, error) {
	n, err := GridBlocks(seatsPerRow, rowCount)
	if err != nil {
		return nil, err
	}

	b := newBuilder(origin, n)

	for x := -1; x <= seatsPerRow; x++ {
		for z := -1; z <= rowCount; z++ {
			b.set(x, 0, z, core.IronBlock)
		}
	}

	for x := 0; x < seatsPerRow; x++ {
		for z := 0; z < rowCount; z++ {
			b.set(x, 1, z, core.StoneSlab)
		}
	}

	return b.placements, nil
}

// HangarPlatform is the quartz floor laid when an owner's hangar is created:
// a square of side 2*radius+1 centred on origin at origin height.
func HangarPlatform(origin core.Position, radius int) []core.Placement {
	if radius < 0 {
		return nil
	}
	side := 2*radius + 1
	b := newBuilder(origin, side*side)
	for x := -radius; x <= radius; x++ {
		for z := -radius; z <= radius; z++ {
			b.set(x, 0, z, core.QuartzBlock)
		}
	}
	return b.placements
}
