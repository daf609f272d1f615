// Package tilestore keeps encoded tile bytes between process runs so the
// fetcher only hits the upstream tile server once per tile.
package tilestore

import (
	"context"

	"github.com/jaennil/guide_helper/backend/world/internal/geo"
)

type Store interface {
	// Get returns ok=false with a nil error on a miss.
	Get(ctx context.Context, addr geo.TileAddress) (data []byte, ok bool, err error)
	Set(ctx context.Context, addr geo.TileAddress, data []byte) error
}

// Nop stores nothing. Used when the raw store is disabled.
type Nop struct{}

var _ Store = Nop{}

func (Nop) Get(context.Context, geo.TileAddress) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, geo.TileAddress, []byte) error         { return nil }
