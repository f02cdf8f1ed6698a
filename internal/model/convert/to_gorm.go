// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ubivismedia/aircraft/internal/geo"
	"github.com/ubivismedia/aircraft/internal/model"
	"github.com/ubivismedia/aircraft/pkg/core"
	"gorm.io/datatypes"
)

// paramsToJSON converts build parameters to datatypes.JSON for DB storage.
func paramsToJSON(params map[string]any) datatypes.JSON {
	if len(params) == 0 {
		return datatypes.JSON("{}")
	}
	data, err := json.Marshal(params)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}

// CoreToStructure converts a core.Structure to a GORM model.Structure.
// An empty material maps to NULL.
func CoreToStructure(s core.Structure) model.Structure {
	return model.Structure{
		Owner:       s.Owner,
		Name:        s.Name,
		SeatsPerRow: s.SeatsPerRow,
		RowCount:    s.RowCount,
		Material:    sql.NullString{String: string(s.Material), Valid: s.Material != ""},
		Seq:         s.Seq,
	}
}

// CoreToBlock converts a core.BlockRecord to a GORM model.StructureBlock.
func CoreToBlock(b core.BlockRecord) model.StructureBlock {
	return model.StructureBlock{
		StructureName: b.Name,
		Owner:         b.Owner,
		X:             b.Position.X,
		Y:             b.Position.Y,
		Z:             b.Position.Z,
		Material:      string(b.Material),
	}
}

// CoreToBuild converts a core.Build to a GORM model.StructureBuild.
func CoreToBuild(b core.Build) (model.StructureBuild, error) {
	origin, err := geo.PointFromPosition(b.Origin)
	if err != nil {
		return model.StructureBuild{}, fmt.Errorf("build origin %s: %w", b.Origin, err)
	}
	return model.StructureBuild{
		ID:        b.ID,
		CreatedAt: b.CreatedAt,
		Owner:     b.Owner,
		Name:      b.Name,
		Mode:      string(b.Mode),
		Origin:    origin,
		Blocks:    b.Blocks,
		Params:    paramsToJSON(b.Params),
	}, nil
}
