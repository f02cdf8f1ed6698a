package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/ubivismedia/aircraft/pkg/core"
)

// BLOCK POINTS
// Block positions are stored as XYZ points: X and Y hold the horizontal block
// x and z, Z holds the height. SQLite has no spatial awareness, so the point
// round-trips through WKB using the geometry's own Scan/Value.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// PointFromPosition converts a block position to an XYZ point.
func PointFromPosition(p core.Position) (geom.Point, error) {
	return blockPoint(float64(p.X), float64(p.Z), float64(p.Y))
}

// blockPoint builds an XYZ point, returning an empty point and
// ErrInvalidCoordinates when the library rejects the horizontal coordinates.
func blockPoint(x, z, height float64) (geom.Point, error) {
	point, err := geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: x, Y: z},
			Z:    height,
			Type: geom.DimXYZ,
		},
	)
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXYZ), fmt.Errorf("%w: %w", ErrInvalidCoordinates, err)
	}
	return point, nil
}

// PositionFromPoint converts an XYZ point back to a block position.
// Empty points return false.
func PositionFromPoint(pt geom.Point) (core.Position, bool) {
	coords, ok := pt.Coordinates()
	if !ok {
		return core.Position{}, false
	}
	return core.Position{
		X: int(math.Round(coords.X)),
		Y: int(math.Round(coords.Z)),
		Z: int(math.Round(coords.Y)),
	}, true
}

// PositionFromString parses "x,y,z" into a block position. Surrounding
// brackets and whitespace are ignored, so "[10, 64, -3]" is accepted.
func PositionFromString(s string) (core.Position, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return core.Position{}, ErrInvalidCoordinates
	}

	var vals [3]int
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return core.Position{}, ErrInvalidCoordinates
		}
		vals[i] = v
	}
	return core.Position{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}
