// pkg/core/position.go
package core

import "fmt"

// Position is an integer block coordinate. Y is the vertical axis.
type Position struct {
	X int
	Y int
	Z int
}

// Add returns p offset by the given deltas.
func (p Position) Add(dx, dy, dz int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// Offset returns p translated by o.
func (p Position) Offset(o Position) Position {
	return p.Add(o.X, o.Y, o.Z)
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Placement is a single block change: set Material at Position.
type Placement struct {
	Position Position
	Material Material
}
