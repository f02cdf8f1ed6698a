// pkg/core/structure.go
package core

import "time"

// StructureID identifies a structure: a name unique per owner.
type StructureID struct {
	Owner string
	Name  string
}

// Structure is the registry entry for a designed aircraft.
// Material is empty until the owner picks one from the menu.
type Structure struct {
	StructureID
	SeatsPerRow int
	RowCount    int
	Material    Material
	Seq         uint64 // creation order, assigned by the backend on upsert
}

// HasMaterial reports whether a material has been chosen.
func (s Structure) HasMaterial() bool {
	return s.Material != ""
}

// BlockRecord is one ledger row: the material placed at an absolute position.
type BlockRecord struct {
	StructureID
	Position Position
	Material Material
}

// BuildMode names the layout routine that produced a build.
type BuildMode string

const (
	BuildModeGrid       BuildMode = "grid"
	BuildModeSilhouette BuildMode = "silhouette"
)

// Build is an audit entry for one generation run.
type Build struct {
	ID uint
	StructureID
	Mode      BuildMode
	Origin    Position
	Blocks    int
	Params    map[string]any
	CreatedAt time.Time
}
