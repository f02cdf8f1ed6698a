package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Structure{},
	&StructureBlock{},
	&StructureBuild{},
}

////////////////////////
// REGISTRY
////////////////////////

// Structure is the registry row for a designed aircraft.
//
// Command: design <name> <seatsPerRow> <rowCount>
// Material stays NULL until the owner picks one from the material menu.
type Structure struct {
	Owner       string         `json:"owner" gorm:"primaryKey;size:64;index:idx_structure_owner_seq,priority:1"`
	Name        string         `json:"name" gorm:"primaryKey;size:128"`
	SeatsPerRow int            `json:"seatsPerRow" gorm:"not null"`
	RowCount    int            `json:"rowCount" gorm:"not null"`
	Material    sql.NullString `json:"material" gorm:"size:64"`
	Seq         uint64         `json:"seq" gorm:"index:idx_structure_owner_seq,priority:2"` // creation order within the store
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (*Structure) TableName() string {
	return "structures"
}

////////////////////////
// LEDGER
////////////////////////

// StructureBlock is one ledger row. The primary key makes every insert at an
// existing coordinate an overwrite.
type StructureBlock struct {
	StructureName string `json:"structureName" gorm:"primaryKey;size:128"`
	Owner         string `json:"owner" gorm:"primaryKey;size:64"`
	X             int    `json:"x" gorm:"primaryKey;autoIncrement:false"`
	Y             int    `json:"y" gorm:"primaryKey;autoIncrement:false"`
	Z             int    `json:"z" gorm:"primaryKey;autoIncrement:false"`
	Material      string `json:"material" gorm:"size:64;not null"`
}

func (*StructureBlock) TableName() string {
	return "structure_blocks"
}

////////////////////////
// AUDIT
////////////////////////

// StructureBuild records one generation run. It is never read by reconstruction.
type StructureBuild struct {
	ID        uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt time.Time      `json:"createdAt" gorm:"index:idx_build_created_at"`
	Owner     string         `json:"owner" gorm:"size:64;index:idx_build_structure,priority:1"`
	Name      string         `json:"name" gorm:"size:128;index:idx_build_structure,priority:2"`
	Mode      string         `json:"mode" gorm:"size:16"`
	Origin    geom.Point     `json:"origin"` // XY = block x,z; Z = block y (height)
	Blocks    int            `json:"blocks"`
	Params    datatypes.JSON `json:"params"`
}

func (*StructureBuild) TableName() string {
	return "structure_builds"
}
