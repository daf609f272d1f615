package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/jaennil/guide_helper/backend/world/internal/geo"
	"github.com/jaennil/guide_helper/backend/world/internal/repository/tilestore"
	"github.com/jaennil/guide_helper/backend/world/pkg/config"
	"github.com/jaennil/guide_helper/backend/world/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTileStore(t *testing.T) {
	dir := t.TempDir()
	addr := geo.TileAddress{X: 1, Y: 2, Zoom: 3}

	for _, backend := range []string{"none", "memory", "sqlite", "filesystem"} {
		t.Run(backend, func(t *testing.T) {
			cfg := &config.Config{TileStore: config.TileStore{
				Backend: backend,
				Path:    filepath.Join(dir, backend, "tiles.db"),
				Dir:     filepath.Join(dir, backend, "tiles"),
			}}

			store, err := newTileStore(cfg, logger.NewNoOp())
			require.NoError(t, err)
			if c, ok := store.(io.Closer); ok {
				defer c.Close()
			}

			require.NoError(t, store.Set(context.Background(), addr, []byte("png")))
			_, ok, err := store.Get(context.Background(), addr)
			require.NoError(t, err)
			if backend == "none" {
				assert.IsType(t, tilestore.Nop{}, store)
				assert.False(t, ok)
			} else {
				assert.True(t, ok)
			}
		})
	}

	_, err := newTileStore(&config.Config{TileStore: config.TileStore{Backend: "tape"}}, logger.NewNoOp())
	assert.Error(t, err)
}
