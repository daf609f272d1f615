// Package layout places regions next to each other in world space.
package layout

import (
	"math"
	"slices"
)

// DefaultSpacing is the distance between neighbouring grid cells in world
// units. It must be at least the region extent so footprints never overlap.
const DefaultSpacing = 300.0

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Placement struct {
	RegionID int64 `json:"region_id"`
	Row      int   `json:"row"`
	Col      int   `json:"col"`
	Position Vec3  `json:"position"`
}

// Compute places every id on a square grid ordered by id. A single region sits
// at the origin. The result depends only on the set of ids, so adding a region
// may move the ones already placed.
func Compute(ids []int64, spacing float64) map[int64]Placement {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	placements := make(map[int64]Placement, len(sorted))

	switch len(sorted) {
	case 0:
		return placements
	case 1:
		placements[sorted[0]] = Placement{RegionID: sorted[0]}
		return placements
	}

	gridSize := int(math.Ceil(math.Sqrt(float64(len(sorted)))))
	half := float64(gridSize) / 2

	for i, id := range sorted {
		row := i / gridSize
		col := i % gridSize
		placements[id] = Placement{
			RegionID: id,
			Row:      row,
			Col:      col,
			Position: Vec3{
				X: (float64(col) - half) * spacing,
				Y: 0,
				Z: (float64(row) - half) * spacing,
			},
		}
	}

	return placements
}
