package dto

import "github.com/jaennil/guide_helper/backend/world/internal/domain"

type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Color struct {
	R float64 `json:"r" validate:"gte=0,lte=1"`
	G float64 `json:"g" validate:"gte=0,lte=1"`
	B float64 `json:"b" validate:"gte=0,lte=1"`
}

// PrimRequest is used for both creating and updating a prim. Omitted parts
// take the same defaults as a freshly created prim.
type PrimRequest struct {
	RegionID int64   `json:"region_id" validate:"required,gt=0"`
	Name     string  `json:"name" validate:"max=128"`
	Shape    string  `json:"shape" validate:"omitempty,oneof=box sphere cylinder cone torus"`
	Position *Vector `json:"position"`
	Rotation *Vector `json:"rotation"`
	Scale    *Vector `json:"scale"`
	Color    *Color  `json:"color"`
}

func (r PrimRequest) ToDomain() domain.Prim {
	p := domain.Prim{
		RegionID:  r.RegionID,
		Name:      r.Name,
		Shape:     domain.ParsePrimShape(r.Shape),
		Transform: domain.IdentityTransform(),
		Color:     domain.DefaultPrimColor,
	}
	if p.Name == "" {
		p.Name = "Prim"
	}
	if r.Position != nil {
		p.Transform.Position = domain.Vector(*r.Position)
	}
	if r.Rotation != nil {
		p.Transform.Rotation = domain.Vector(*r.Rotation)
	}
	if r.Scale != nil {
		p.Transform.Scale = domain.Vector(*r.Scale)
	}
	if r.Color != nil {
		p.Color = domain.Color{R: r.Color.R, G: r.Color.G, B: r.Color.B}
	}
	return p
}
