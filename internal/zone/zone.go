// Package zone implements restricted-zone geometry: operator-defined
// rectangles in frame pixel coordinates and the point-in-zone breach test.
package zone

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Zone is a restricted rectangle in frame pixel coordinates. Zones are
// configured per camera at startup and never change afterwards.
type Zone struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// Contains reports whether the point lies inside the rectangle. All four
// edges are inclusive: standing exactly on the boundary counts as inside.
func (z Zone) Contains(x, y int) bool {
	return x >= z.X1 && x <= z.X2 && y >= z.Y1 && y <= z.Y2
}

// String renders the zone the way alert records store coordinates.
func (z Zone) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", z.X1, z.Y1, z.X2, z.Y2)
}

// Breached reports whether the point falls inside any of the zones.
func Breached(x, y int, zones []Zone) bool {
	for _, z := range zones {
		if z.Contains(x, y) {
			return true
		}
	}
	return false
}

// UnmarshalYAML accepts the compact config form [x1, y1, x2, y2].
func (z *Zone) UnmarshalYAML(value *yaml.Node) error {
	var coords []int
	if err := value.Decode(&coords); err != nil {
		return fmt.Errorf("decode zone: %w", err)
	}
	if len(coords) != 4 {
		return fmt.Errorf("zone needs 4 coordinates, got %d", len(coords))
	}
	z.X1, z.Y1, z.X2, z.Y2 = coords[0], coords[1], coords[2], coords[3]
	return nil
}
