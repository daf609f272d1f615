package geo

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

var ErrInvalidTileAddress = errors.New("invalid tile address")

// TileAddress identifies one raster tile. It is comparable and used directly
// as a map key.
type TileAddress struct {
	X    int64  `json:"x"`
	Y    int64  `json:"y"`
	Zoom uint32 `json:"z"`
}

// NewTileAddress validates externally supplied coordinates.
func NewTileAddress(x, y int64, zoom uint32) (TileAddress, error) {
	a := TileAddress{X: x, Y: y, Zoom: zoom}
	if !a.Valid() {
		return TileAddress{}, fmt.Errorf("%w: %s", ErrInvalidTileAddress, a)
	}
	return a, nil
}

// TileFor anchors a coordinate to its tile at zoom.
func TileFor(lat, lng float64, zoom uint32) TileAddress {
	x, y := LatLngToTile(lat, lng, zoom)
	return TileAddress{X: x, Y: y, Zoom: zoom}
}

func (a TileAddress) Valid() bool {
	if a.Zoom > MaxZoom {
		return false
	}
	n := int64(1) << a.Zoom
	return a.X >= 0 && a.X < n && a.Y >= 0 && a.Y < n
}

func (a TileAddress) String() string {
	return fmt.Sprintf("%d/%d/%d", a.Zoom, a.X, a.Y)
}

// Compare orders addresses by (zoom, x, y).
func (a TileAddress) Compare(b TileAddress) int {
	if c := cmp.Compare(a.Zoom, b.Zoom); c != 0 {
		return c
	}
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	return cmp.Compare(a.Y, b.Y)
}

func (a TileAddress) Less(b TileAddress) bool {
	return a.Compare(b) < 0
}

// TopLeft is the geographic corner the address was floored from.
func (a TileAddress) TopLeft() (lat, lng float64) {
	return TileToLatLng(a.X, a.Y, a.Zoom)
}

func (a TileAddress) MapTile() maptile.Tile {
	return maptile.New(uint32(a.X), uint32(a.Y), maptile.Zoom(a.Zoom))
}

// Bound is the lon/lat box covered by the tile.
func (a TileAddress) Bound() orb.Bound {
	return a.MapTile().Bound()
}

func FromMapTile(t maptile.Tile) (TileAddress, error) {
	return NewTileAddress(int64(t.X), int64(t.Y), uint32(t.Z))
}

func SortTileAddresses(addrs []TileAddress) {
	slices.SortFunc(addrs, TileAddress.Compare)
}
