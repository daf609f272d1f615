// Package geo implements Web Mercator tile math: converting between
// latitude/longitude and XYZ tile addresses, and sizing tiles in meters.
//
// All functions are pure. Latitude must lie inside (-MaxLatitude, MaxLatitude)
// and zoom inside [0, MaxZoom]; outside those ranges the projection is singular
// and results are undefined (NaN or nonsense). Callers validate first, see
// ValidLatitude.
package geo

import (
	"math"
)

const (
	EarthRadius        = 6_378_137.0 // meters
	EarthCircumference = 2 * math.Pi * EarthRadius

	// MaxLatitude bounds the square Web Mercator world.
	MaxLatitude = 85.05
	MaxZoom     = 19

	// RegionZoom and RegionSizeMeters are the default deployment scale.
	// All regions of one deployment must share them.
	RegionZoom       = 17
	RegionSizeMeters = 256.0
)

// floorTolerance absorbs float error when a coordinate sits exactly on a tile
// edge, so the top-left corner of a tile always floors back into that tile.
// This deliberately differs from a plain floor: a point less than 1e-6 tiles
// west or north of an edge (under a millimetre at zoom 19) lands in the next
// tile. A plain floor breaks the tile -> corner -> tile round trip.
const floorTolerance = 1e-6

func tileCount(zoom uint32) float64 {
	return math.Exp2(float64(zoom))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// ValidLatitude reports whether lat can be projected.
func ValidLatitude(lat float64) bool {
	return lat > -MaxLatitude && lat < MaxLatitude
}

func ValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}

// LatLngToTile returns the tile containing (lat, lng) at zoom.
// The result is clamped to [0, 2^zoom).
func LatLngToTile(lat, lng float64, zoom uint32) (x, y int64) {
	n := tileCount(zoom)
	latRad := toRadians(lat)

	fx := (lng + 180) / 360 * n
	fy := (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n

	return clampTile(fx, n), clampTile(fy, n)
}

func clampTile(v, n float64) int64 {
	t := math.Floor(v + floorTolerance)
	if t < 0 {
		return 0
	}
	if t > n-1 {
		return int64(n - 1)
	}
	return int64(t)
}

// TileToLatLng returns the top-left corner of tile (x, y) at zoom.
func TileToLatLng(x, y int64, zoom uint32) (lat, lng float64) {
	n := tileCount(zoom)
	lng = float64(x)/n*360 - 180
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(y)/n)))
	return toDegrees(latRad), lng
}

// MetersPerTile is the real-world width of one tile at zoom and lat.
func MetersPerTile(zoom uint32, lat float64) float64 {
	return EarthCircumference * math.Cos(toRadians(lat)) / tileCount(zoom)
}

// FindOptimalZoom returns the zoom in [0, MaxZoom] whose tile width is closest
// to targetMeters. Ties go to the lowest zoom.
func FindOptimalZoom(targetMeters, lat float64) uint32 {
	var best uint32
	bestDiff := math.Inf(1)

	for zoom := uint32(0); zoom <= MaxZoom; zoom++ {
		diff := math.Abs(MetersPerTile(zoom, lat) - targetMeters)
		if diff < bestDiff {
			bestDiff = diff
			best = zoom
		}
	}

	return best
}
