// Package tilecache holds decoded tiles for the lifetime of the process and
// makes sure no tile address is fetched twice at the same time.
package tilecache

import (
	"sync"

	"github.com/jaennil/guide_helper/backend/world/internal/geo"
	"github.com/jaennil/guide_helper/backend/world/internal/tile"
	"github.com/jaennil/guide_helper/backend/world/pkg/logger"
	"github.com/jaennil/guide_helper/backend/world/pkg/metrics"
)

type Outcome int

const (
	// AlreadyLoaded: the returned handle is ready to use.
	AlreadyLoaded Outcome = iota + 1
	// Joined: another caller owns the fetch; ask again later.
	Joined
	// Started: the caller now owns the fetch and must report it through
	// Complete or Fail.
	Started
)

func (o Outcome) String() string {
	switch o {
	case AlreadyLoaded:
		return "loaded"
	case Joined:
		return "joined"
	case Started:
		return "started"
	}
	return "unknown"
}

type Stats struct {
	Loaded  int `json:"loaded"`
	Pending int `json:"pending"`
}

// Cache never evicts. An address is in at most one of loaded and pending.
type Cache struct {
	mu      sync.Mutex
	loaded  map[geo.TileAddress]*tile.DecodedTile
	pending map[geo.TileAddress]struct{}
	logger  logger.Logger
}

func New(l logger.Logger) *Cache {
	return &Cache{
		loaded:  make(map[geo.TileAddress]*tile.DecodedTile),
		pending: make(map[geo.TileAddress]struct{}),
		logger:  l,
	}
}

func (c *Cache) Request(addr geo.TileAddress) (Outcome, *tile.DecodedTile) {
	outcome, t := c.request(addr)
	metrics.TileCacheRequests.WithLabelValues(outcome.String()).Inc()
	return outcome, t
}

func (c *Cache) request(addr geo.TileAddress) (Outcome, *tile.DecodedTile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.loaded[addr]; ok {
		return AlreadyLoaded, t
	}
	if _, ok := c.pending[addr]; ok {
		return Joined, nil
	}

	c.pending[addr] = struct{}{}
	metrics.TileCachePending.Set(float64(len(c.pending)))
	c.logger.Debug("tile fetch started", "tile", addr)
	return Started, nil
}

// Complete records a successful fetch for an address obtained via Started.
func (c *Cache) Complete(addr geo.TileAddress, t *tile.DecodedTile) {
	if t == nil {
		c.Fail(addr, nil)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.pending, addr)
	c.loaded[addr] = t

	metrics.TileCachePending.Set(float64(len(c.pending)))
	metrics.TileCacheLoaded.Set(float64(len(c.loaded)))
	c.logger.Debug("tile loaded", "tile", addr, "width", t.Width, "height", t.Height)
}

// Fail drops the pending mark so the next Request starts a fresh fetch.
func (c *Cache) Fail(addr geo.TileAddress, err error) {
	c.mu.Lock()
	delete(c.pending, addr)
	metrics.TileCachePending.Set(float64(len(c.pending)))
	c.mu.Unlock()

	c.logger.Warn("tile fetch failed", "tile", addr, "error", err)
}

func (c *Cache) Get(addr geo.TileAddress) (*tile.DecodedTile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.loaded[addr]
	return t, ok
}

// IsPending reports whether a fetch for addr is in flight.
func (c *Cache) IsPending(addr geo.TileAddress) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.pending[addr]
	return ok
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Loaded:  len(c.loaded),
		Pending: len(c.pending),
	}
}
