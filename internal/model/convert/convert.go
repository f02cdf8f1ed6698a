package convert

import (
	"encoding/json"

	"github.com/ubivismedia/aircraft/internal/geo"
	"github.com/ubivismedia/aircraft/internal/model"
	"github.com/ubivismedia/aircraft/pkg/core"
)

// StructureToCore converts a GORM Structure to a core.Structure.
// A NULL material maps to the empty material.
func StructureToCore(s model.Structure) core.Structure {
	var material core.Material
	if s.Material.Valid {
		material = core.Material(s.Material.String)
	}
	return core.Structure{
		StructureID: core.StructureID{Owner: s.Owner, Name: s.Name},
		SeatsPerRow: s.SeatsPerRow,
		RowCount:    s.RowCount,
		Material:    material,
		Seq:         s.Seq,
	}
}

// BlockToCore converts a GORM StructureBlock to a core.BlockRecord.
// The material string is returned as stored; resolving unknown names is the
// caller's job.
func BlockToCore(b model.StructureBlock) core.BlockRecord {
	return core.BlockRecord{
		StructureID: core.StructureID{Owner: b.Owner, Name: b.StructureName},
		Position:    core.Position{X: b.X, Y: b.Y, Z: b.Z},
		Material:    core.Material(b.Material),
	}
}

// BuildToCore converts a GORM StructureBuild to a core.Build.
func BuildToCore(b model.StructureBuild) core.Build {
	var params map[string]any
	if len(b.Params) > 0 {
		_ = json.Unmarshal(b.Params, &params)
	}
	origin, _ := geo.PositionFromPoint(b.Origin)

	return core.Build{
		ID:          b.ID,
		StructureID: core.StructureID{Owner: b.Owner, Name: b.Name},
		Mode:        core.BuildMode(b.Mode),
		Origin:      origin,
		Blocks:      b.Blocks,
		Params:      params,
		CreatedAt:   b.CreatedAt,
	}
}
