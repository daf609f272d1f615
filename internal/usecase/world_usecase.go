package usecase

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jaennil/guide_helper/backend/world/internal/domain"
	"github.com/jaennil/guide_helper/backend/world/internal/geo"
	"github.com/jaennil/guide_helper/backend/world/internal/layout"
	"github.com/jaennil/guide_helper/backend/world/internal/tile"
	"github.com/jaennil/guide_helper/backend/world/internal/tilecache"
	"github.com/jaennil/guide_helper/backend/world/pkg/logger"
	"github.com/jaennil/guide_helper/backend/world/pkg/metrics"
)

var (
	ErrRegionNotFound     = errors.New("region not found")
	ErrPrimNotFound       = errors.New("prim not found")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

type RegionStore interface {
	LoadAllRegions(ctx context.Context) ([]domain.Region, error)
	LoadAllPrims(ctx context.Context) ([]domain.Prim, error)
	InsertRegion(ctx context.Context, region *domain.Region) error
	UpdateRegion(ctx context.Context, region *domain.Region) error
	InsertPrim(ctx context.Context, p *domain.Prim) error
	UpdatePrim(ctx context.Context, p *domain.Prim) error
}

// TileRequester never blocks on the network. A Started outcome means the
// requester has begun loading the tile and a later call will report it.
type TileRequester interface {
	Request(addr geo.TileAddress) (tilecache.Outcome, *tile.DecodedTile)
}

type WorldConfig struct {
	RegionZoom uint32
	Spacing    float64
}

type DefaultRegion struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// RegionView is what the rendering side needs to draw one region.
type RegionView struct {
	domain.Region
	Placement layout.Placement `json:"placement"`
	Textured  bool             `json:"textured"`
}

// WorldUseCase keeps the in-memory world: every known region and prim, the
// layout derived from the region ids and the tile texture bound to each
// region. All state is keyed by region id.
type WorldUseCase struct {
	mu     sync.Mutex
	store  RegionStore
	tiles  TileRequester
	cfg    WorldConfig
	logger logger.Logger

	loaded     bool
	regions    map[int64]*domain.Region
	prims      map[int64]*domain.Prim
	placements map[int64]layout.Placement
	textures   map[int64]*tile.DecodedTile
}

func NewWorldUseCase(store RegionStore, tiles TileRequester, cfg WorldConfig, l logger.Logger) *WorldUseCase {
	if cfg.Spacing <= 0 {
		cfg.Spacing = layout.DefaultSpacing
	}

	return &WorldUseCase{
		store:      store,
		tiles:      tiles,
		cfg:        cfg,
		logger:     l,
		regions:    make(map[int64]*domain.Region),
		prims:      make(map[int64]*domain.Prim),
		placements: make(map[int64]layout.Placement),
		textures:   make(map[int64]*tile.DecodedTile),
	}
}

// Load replaces the in-memory world with the store's content. On error the
// world is left untouched and the next Tick tries again.
func (uc *WorldUseCase) Load(ctx context.Context) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	return uc.load(ctx)
}

func (uc *WorldUseCase) load(ctx context.Context) error {
	regions, err := uc.store.LoadAllRegions(ctx)
	if err != nil {
		uc.logger.Error("failed to load regions", "error", err)
		return fmt.Errorf("load regions: %w", err)
	}

	prims, err := uc.store.LoadAllPrims(ctx)
	if err != nil {
		uc.logger.Error("failed to load prims", "error", err)
		return fmt.Errorf("load prims: %w", err)
	}

	uc.regions = make(map[int64]*domain.Region, len(regions))
	for i := range regions {
		uc.regions[regions[i].ID] = &regions[i]
	}

	uc.prims = make(map[int64]*domain.Prim, len(prims))
	for i := range prims {
		uc.prims[prims[i].ID] = &prims[i]
	}

	uc.textures = make(map[int64]*tile.DecodedTile)
	uc.loaded = true
	uc.relayout()

	uc.logger.Info("world loaded", "regions", len(regions), "prims", len(prims))

	uc.anchorMissing(ctx)

	return nil
}

func (uc *WorldUseCase) ensureLoaded(ctx context.Context) error {
	if uc.loaded {
		return nil
	}
	return uc.load(ctx)
}

// anchorMissing gives every region without a tile its tile at the configured
// zoom. A region whose anchor cannot be saved stays unanchored and is retried.
func (uc *WorldUseCase) anchorMissing(ctx context.Context) {
	for _, id := range uc.sortedRegionIDs() {
		region := uc.regions[id]
		if region.Anchored() {
			continue
		}

		addr := region.AnchorAt(uc.cfg.RegionZoom)
		if err := uc.store.UpdateRegion(ctx, region); err != nil {
			region.Tile = nil
			uc.logger.Error("failed to save region anchor", "region_id", id, "error", err)
			continue
		}

		uc.logger.Info("region anchored", "region_id", id, "tile", addr)
	}
}

// Tick runs one step of the world update: load if needed, then request the
// tile of every untextured region and bind the ones that are ready.
func (uc *WorldUseCase) Tick(ctx context.Context) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.ensureLoaded(ctx); err != nil {
		return err
	}

	uc.anchorMissing(ctx)

	for _, id := range uc.sortedRegionIDs() {
		if _, bound := uc.textures[id]; bound {
			continue
		}

		region := uc.regions[id]
		if !region.Anchored() {
			continue
		}

		outcome, t := uc.tiles.Request(*region.Tile)
		if outcome == tilecache.AlreadyLoaded {
			uc.textures[id] = t
			uc.logger.Debug("region texture bound", "region_id", id, "tile", *region.Tile)
		}
	}

	return nil
}

// Run drives Tick at a fixed interval until ctx is done.
func (uc *WorldUseCase) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	uc.logger.Info("world loop started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("world loop stopped")
			return
		case <-ticker.C:
			start := time.Now()
			if err := uc.Tick(ctx); err != nil {
				uc.logger.Warn("world tick failed", "error", err)
			}
			metrics.TickDuration.Observe(time.Since(start).Seconds())
		}
	}
}

func (uc *WorldUseCase) CreateRegion(ctx context.Context, name string, lat, lng float64) (RegionView, error) {
	if !geo.ValidLatitude(lat) || !geo.ValidLongitude(lng) {
		return RegionView{}, fmt.Errorf("%w: lat %v lng %v", ErrInvalidCoordinates, lat, lng)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.ensureLoaded(ctx); err != nil {
		return RegionView{}, err
	}

	return uc.createRegion(ctx, name, lat, lng)
}

func (uc *WorldUseCase) createRegion(ctx context.Context, name string, lat, lng float64) (RegionView, error) {
	region := &domain.Region{
		Name:      name,
		Latitude:  lat,
		Longitude: lng,
	}
	region.AnchorAt(uc.cfg.RegionZoom)

	if err := uc.store.InsertRegion(ctx, region); err != nil {
		uc.logger.Error("failed to insert region", "name", name, "error", err)
		return RegionView{}, fmt.Errorf("create region: %w", err)
	}

	uc.regions[region.ID] = region
	uc.relayout()

	uc.logger.Info("region created", "region_id", region.ID, "name", name, "tile", *region.Tile)

	return uc.view(region.ID), nil
}

// MoveRegion changes the region's coordinates only. Its tile stays where it
// was until ReanchorRegion is called.
func (uc *WorldUseCase) MoveRegion(ctx context.Context, id int64, lat, lng float64) (RegionView, error) {
	if !geo.ValidLatitude(lat) || !geo.ValidLongitude(lng) {
		return RegionView{}, fmt.Errorf("%w: lat %v lng %v", ErrInvalidCoordinates, lat, lng)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.ensureLoaded(ctx); err != nil {
		return RegionView{}, err
	}

	region, ok := uc.regions[id]
	if !ok {
		return RegionView{}, fmt.Errorf("%w: %d", ErrRegionNotFound, id)
	}

	updated := *region
	updated.Latitude = lat
	updated.Longitude = lng

	if err := uc.store.UpdateRegion(ctx, &updated); err != nil {
		uc.logger.Error("failed to move region", "region_id", id, "error", err)
		return RegionView{}, fmt.Errorf("move region: %w", err)
	}
	*region = updated

	return uc.view(id), nil
}

// ReanchorRegion recomputes the region's tile from its current coordinates.
// A changed tile unbinds the old texture.
func (uc *WorldUseCase) ReanchorRegion(ctx context.Context, id int64) (RegionView, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.ensureLoaded(ctx); err != nil {
		return RegionView{}, err
	}

	region, ok := uc.regions[id]
	if !ok {
		return RegionView{}, fmt.Errorf("%w: %d", ErrRegionNotFound, id)
	}

	updated := *region
	addr := updated.AnchorAt(uc.cfg.RegionZoom)

	if err := uc.store.UpdateRegion(ctx, &updated); err != nil {
		uc.logger.Error("failed to reanchor region", "region_id", id, "error", err)
		return RegionView{}, fmt.Errorf("reanchor region: %w", err)
	}

	if region.Tile == nil || *region.Tile != addr {
		delete(uc.textures, id)
	}
	*region = updated

	uc.logger.Info("region reanchored", "region_id", id, "tile", addr)

	return uc.view(id), nil
}

// EnsureDefaultRegion creates def when the world has no regions at all.
func (uc *WorldUseCase) EnsureDefaultRegion(ctx context.Context, def DefaultRegion) (bool, error) {
	if !geo.ValidLatitude(def.Latitude) || !geo.ValidLongitude(def.Longitude) {
		return false, fmt.Errorf("%w: lat %v lng %v", ErrInvalidCoordinates, def.Latitude, def.Longitude)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.ensureLoaded(ctx); err != nil {
		return false, err
	}

	if len(uc.regions) > 0 {
		return false, nil
	}

	if _, err := uc.createRegion(ctx, def.Name, def.Latitude, def.Longitude); err != nil {
		return false, err
	}

	uc.logger.Info("seeded default region", "name", def.Name)

	return true, nil
}

func (uc *WorldUseCase) CreatePrim(ctx context.Context, p domain.Prim) (domain.Prim, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.ensureLoaded(ctx); err != nil {
		return domain.Prim{}, err
	}

	if _, ok := uc.regions[p.RegionID]; !ok {
		return domain.Prim{}, fmt.Errorf("%w: %d", ErrRegionNotFound, p.RegionID)
	}

	p.ID = 0
	if err := uc.store.InsertPrim(ctx, &p); err != nil {
		uc.logger.Error("failed to insert prim", "region_id", p.RegionID, "error", err)
		return domain.Prim{}, fmt.Errorf("create prim: %w", err)
	}

	stored := p
	uc.prims[p.ID] = &stored

	return p, nil
}

func (uc *WorldUseCase) UpdatePrim(ctx context.Context, p domain.Prim) (domain.Prim, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.ensureLoaded(ctx); err != nil {
		return domain.Prim{}, err
	}

	existing, ok := uc.prims[p.ID]
	if !ok {
		return domain.Prim{}, fmt.Errorf("%w: %d", ErrPrimNotFound, p.ID)
	}
	if _, ok := uc.regions[p.RegionID]; !ok {
		return domain.Prim{}, fmt.Errorf("%w: %d", ErrRegionNotFound, p.RegionID)
	}

	p.CreatedAt = existing.CreatedAt
	if err := uc.store.UpdatePrim(ctx, &p); err != nil {
		uc.logger.Error("failed to update prim", "prim_id", p.ID, "error", err)
		return domain.Prim{}, fmt.Errorf("update prim: %w", err)
	}
	*existing = p

	return p, nil
}

// Regions returns every region ordered by id.
func (uc *WorldUseCase) Regions() []RegionView {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	ids := uc.sortedRegionIDs()
	views := make([]RegionView, 0, len(ids))
	for _, id := range ids {
		views = append(views, uc.view(id))
	}
	return views
}

func (uc *WorldUseCase) Region(id int64) (RegionView, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if _, ok := uc.regions[id]; !ok {
		return RegionView{}, false
	}
	return uc.view(id), true
}

// Prims returns every prim ordered by id.
func (uc *WorldUseCase) Prims() []domain.Prim {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	prims := make([]domain.Prim, 0, len(uc.prims))
	for _, p := range uc.prims {
		prims = append(prims, *p)
	}
	slices.SortFunc(prims, func(a, b domain.Prim) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return prims
}

// IsAnchoredTile reports whether some region is anchored to addr. Only those
// tiles are ever requested, which keeps the tile cache bounded by the region
// set.
func (uc *WorldUseCase) IsAnchoredTile(ctx context.Context, addr geo.TileAddress) (bool, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if err := uc.ensureLoaded(ctx); err != nil {
		return false, err
	}

	for _, region := range uc.regions {
		if region.Tile != nil && *region.Tile == addr {
			return true, nil
		}
	}
	return false, nil
}

// Texture is the tile bound to the region, if any.
func (uc *WorldUseCase) Texture(regionID int64) (*tile.DecodedTile, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	t, ok := uc.textures[regionID]
	return t, ok
}

func (uc *WorldUseCase) view(id int64) RegionView {
	_, textured := uc.textures[id]
	region := *uc.regions[id]
	if region.Tile != nil {
		addr := *region.Tile
		region.Tile = &addr
	}
	return RegionView{
		Region:    region,
		Placement: uc.placements[id],
		Textured:  textured,
	}
}

func (uc *WorldUseCase) relayout() {
	uc.placements = layout.Compute(uc.sortedRegionIDs(), uc.cfg.Spacing)
	metrics.Regions.Set(float64(len(uc.regions)))
}

func (uc *WorldUseCase) sortedRegionIDs() []int64 {
	ids := make([]int64, 0, len(uc.regions))
	for id := range uc.regions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
