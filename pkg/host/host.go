// Package host defines the capabilities the extension needs from the game
// server hosting it. The extension never touches engine state directly;
// every world mutation and player interaction goes through these interfaces.
package host

import "github.com/ubivismedia/aircraft/pkg/core"

// World is the placement sink: it mutates one voxel of a live world.
// SetBlock is synchronous and assumed to always succeed.
type World interface {
	Name() string
	SetBlock(pos core.Position, material core.Material)
}

// Selection is a finite menu of materials. The host echoes ID back with the
// owner's choice so a click on a replaced menu can be recognised.
type Selection struct {
	ID      string
	Title   string
	Options []core.Material
}

// Host exposes the engine-side operations used by the request handlers.
type Host interface {
	// CurrentWorld returns the world the owner is currently in.
	CurrentWorld(owner string) (World, error)

	// Position returns the owner's current block position.
	Position(owner string) (core.Position, error)

	// CreateAnchor creates (or reuses) the owner-scoped hangar world.
	CreateAnchor(owner string) (World, error)

	// Teleport moves the owner into world at pos.
	Teleport(owner string, world World, pos core.Position) error

	// OpenSelection presents menu to the owner. The choice arrives later
	// through the extension's selection entry point, tagged with menu.ID.
	OpenSelection(owner string, menu Selection) error

	// Message sends a single line of text to the owner.
	Message(owner, text string)
}

// BlockReader is implemented by worlds that can report the material at a
// position. It is optional; features that need it are skipped otherwise.
type BlockReader interface {
	Block(pos core.Position) core.Material
}

// MaterialResolver is implemented by worlds whose host knows more block types
// than the extension's built-in catalog. Reload asks it first for materials
// found in the ledger. It is optional.
type MaterialResolver interface {
	ResolveMaterial(name string) (core.Material, bool)
}
