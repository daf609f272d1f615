package domain

import (
	"strings"
	"time"
)

type PrimShape string

const (
	ShapeBox      PrimShape = "box"
	ShapeSphere   PrimShape = "sphere"
	ShapeCylinder PrimShape = "cylinder"
	ShapeCone     PrimShape = "cone"
	ShapeTorus    PrimShape = "torus"
)

// ParsePrimShape falls back to a box for anything it does not recognise.
func ParsePrimShape(s string) PrimShape {
	switch shape := PrimShape(strings.ToLower(strings.TrimSpace(s))); shape {
	case ShapeBox, ShapeSphere, ShapeCylinder, ShapeCone, ShapeTorus:
		return shape
	default:
		return ShapeBox
	}
}

type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Transform is relative to the owning region's placement. Rotation is in
// radians around each axis.
type Transform struct {
	Position Vector `json:"position"`
	Rotation Vector `json:"rotation"`
	Scale    Vector `json:"scale"`
}

func IdentityTransform() Transform {
	return Transform{Scale: Vector{X: 1, Y: 1, Z: 1}}
}

// Color components are in [0, 1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

var DefaultPrimColor = Color{R: 0.5, G: 0.5, B: 0.5}

// Prim is a primitive shape placed inside a region.
type Prim struct {
	ID        int64     `json:"id"`
	RegionID  int64     `json:"region_id"`
	Name      string    `json:"name"`
	Shape     PrimShape `json:"shape"`
	Transform Transform `json:"transform"`
	Color     Color     `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
