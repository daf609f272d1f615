package tilecache

import (
	"context"
	"sync"

	"github.com/jaennil/guide_helper/backend/world/internal/geo"
	"github.com/jaennil/guide_helper/backend/world/internal/tile"
	"github.com/jaennil/guide_helper/backend/world/pkg/logger"
	"golang.org/x/sync/semaphore"
)

type Fetcher interface {
	Fetch(ctx context.Context, addr geo.TileAddress) (*tile.DecodedTile, error)
}

// Loader answers tile requests from the cache and runs the fetch for every
// Started outcome in the background. Started fetches always run to
// completion; there is no way to abandon one.
type Loader struct {
	cache   *Cache
	fetcher Fetcher
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	logger  logger.Logger
}

func NewLoader(cache *Cache, fetcher Fetcher, maxConcurrent int64, l logger.Logger) *Loader {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &Loader{
		cache:   cache,
		fetcher: fetcher,
		sem:     semaphore.NewWeighted(maxConcurrent),
		logger:  l,
	}
}

// Request never blocks on the network.
func (ld *Loader) Request(addr geo.TileAddress) (Outcome, *tile.DecodedTile) {
	outcome, t := ld.cache.Request(addr)
	if outcome == Started {
		ld.wg.Add(1)
		go ld.load(addr)
	}
	return outcome, t
}

func (ld *Loader) load(addr geo.TileAddress) {
	defer ld.wg.Done()

	// detached from any request context: a started fetch is never cancelled
	ctx := context.Background()

	if err := ld.sem.Acquire(ctx, 1); err != nil {
		ld.cache.Fail(addr, err)
		return
	}
	defer ld.sem.Release(1)

	t, err := ld.fetcher.Fetch(ctx, addr)
	if err != nil {
		ld.cache.Fail(addr, err)
		return
	}

	ld.cache.Complete(addr, t)
}

func (ld *Loader) Cache() *Cache {
	return ld.cache
}

// Wait blocks until every started fetch has finished.
func (ld *Loader) Wait() {
	ld.wg.Wait()
}
