package domain

import (
	"time"

	"github.com/jaennil/guide_helper/backend/world/internal/geo"
)

// Region is one map tile sized area of the world. Tile is nil until the
// region has been anchored.
type Region struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	Latitude  float64          `json:"latitude"`
	Longitude float64          `json:"longitude"`
	Tile      *geo.TileAddress `json:"tile,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// RegionAnchor ties a region to the tile shown on its ground.
type RegionAnchor struct {
	RegionID int64
	Tile     geo.TileAddress
}

func (r *Region) Anchored() bool {
	return r.Tile != nil
}

// Anchor reports false for a region that has no tile yet.
func (r *Region) Anchor() (RegionAnchor, bool) {
	if r.Tile == nil {
		return RegionAnchor{}, false
	}
	return RegionAnchor{RegionID: r.ID, Tile: *r.Tile}, true
}

// AnchorAt computes and stores the tile under the region's coordinates.
func (r *Region) AnchorAt(zoom uint32) geo.TileAddress {
	addr := geo.TileFor(r.Latitude, r.Longitude, zoom)
	r.Tile = &addr
	return addr
}
