package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jaennil/guide_helper/backend/world/internal/geo"
	"github.com/jaennil/guide_helper/backend/world/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/world/internal/layout"
	"github.com/jaennil/guide_helper/backend/world/internal/repository/world"
	"github.com/jaennil/guide_helper/backend/world/internal/tile"
	"github.com/jaennil/guide_helper/backend/world/internal/tilecache"
	"github.com/jaennil/guide_helper/backend/world/internal/usecase"
	"github.com/jaennil/guide_helper/backend/world/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedFetcher returns a 2x2 red tile once release is closed.
type gatedFetcher struct {
	release chan struct{}
	once    sync.Once
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{release: make(chan struct{})}
}

func (f *gatedFetcher) open() {
	f.once.Do(func() { close(f.release) })
}

func (f *gatedFetcher) Fetch(ctx context.Context, addr geo.TileAddress) (*tile.DecodedTile, error) {
	<-f.release
	pix := make([]byte, 2*2*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+3] = 255, 255
	}
	return &tile.DecodedTile{Width: 2, Height: 2, Pix: pix, Sampler: tile.DefaultSampler}, nil
}

type testEnv struct {
	router  *gin.Engine
	world   *usecase.WorldUseCase
	loader  *tilecache.Loader
	fetcher *gatedFetcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	l := logger.NewNoOp()

	repo, err := world.NewRepository(filepath.Join(t.TempDir(), "world.db"), l)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	fetcher := newGatedFetcher()
	loader := tilecache.NewLoader(tilecache.New(l), fetcher, 2, l)
	t.Cleanup(func() {
		fetcher.open()
		loader.Wait()
	})

	uc := usecase.NewWorldUseCase(repo, loader, usecase.WorldConfig{
		RegionZoom: geo.RegionZoom,
		Spacing:    layout.DefaultSpacing,
	}, l)

	h := handler.NewHandler(validator.New(), uc, loader)

	return &testEnv{
		router:  NewRouter(h, l, false),
		world:   uc,
		loader:  loader,
		fetcher: fetcher,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "image/png" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodGet, "/api/v1/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegions_CreateAndList(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.do(t, http.MethodPost, "/api/v1/regions", map[string]any{
		"name": "Groningen", "latitude": 53.2194, "longitude": 6.5665,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, resp.Success)

	var created usecase.RegionView
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	require.NotNil(t, created.Tile)
	assert.Equal(t, geo.TileAddress{X: 67926, Y: 42563, Zoom: 17}, *created.Tile)
	assert.Equal(t, layout.Vec3{}, created.Placement.Position)

	w, resp = env.do(t, http.MethodGet, "/api/v1/regions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []usecase.RegionView
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.False(t, list[0].Textured)
}

func TestRegions_CreateAtZeroZeroIsAllowed(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.do(t, http.MethodPost, "/api/v1/regions", map[string]any{
		"name": "null island", "latitude": 0, "longitude": 0,
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestRegions_CreateValidation(t *testing.T) {
	env := newTestEnv(t)

	bodies := []map[string]any{
		{"latitude": 1, "longitude": 1},
		{"name": "x", "longitude": 1},
		{"name": "x", "latitude": 86, "longitude": 1},
		{"name": "x", "latitude": 1, "longitude": 181},
	}
	for _, body := range bodies {
		w, resp := env.do(t, http.MethodPost, "/api/v1/regions", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%v", body)
		assert.False(t, resp.Success)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/regions", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegions_MoveAndReanchor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.world.CreateRegion(ctx, "g", 53.2194, 6.5665)
	require.NoError(t, err)
	path := "/api/v1/regions/" + itoa(created.ID)

	w, resp := env.do(t, http.MethodPatch, path+"/location", map[string]any{"latitude": 55.7558, "longitude": 37.6173})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var moved usecase.RegionView
	require.NoError(t, json.Unmarshal(resp.Data, &moved))
	assert.Equal(t, *created.Tile, *moved.Tile, "moving does not reanchor")

	w, resp = env.do(t, http.MethodPost, path+"/reanchor", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reanchored usecase.RegionView
	require.NoError(t, json.Unmarshal(resp.Data, &reanchored))
	assert.Equal(t, geo.TileFor(55.7558, 37.6173, geo.RegionZoom), *reanchored.Tile)

	w, _ = env.do(t, http.MethodPost, "/api/v1/regions/999/reanchor", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/v1/regions/abc/reanchor", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrims(t *testing.T) {
	env := newTestEnv(t)

	region, err := env.world.CreateRegion(context.Background(), "r", 1, 1)
	require.NoError(t, err)

	w, resp := env.do(t, http.MethodPost, "/api/v1/prims", map[string]any{
		"region_id": region.ID,
		"shape":     "sphere",
		"position":  map[string]float64{"x": 1, "y": 2, "z": 3},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Shape string `json:"shape"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, "sphere", created.Shape)
	assert.Equal(t, "Prim", created.Name)

	w, _ = env.do(t, http.MethodPut, "/api/v1/prims/"+itoa(created.ID), map[string]any{
		"region_id": region.ID,
		"shape":     "torus",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	prims := env.world.Prims()
	require.Len(t, prims, 1)
	assert.EqualValues(t, "torus", prims[0].Shape)

	w, _ = env.do(t, http.MethodPost, "/api/v1/prims", map[string]any{"region_id": 999})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/v1/prims", map[string]any{"region_id": region.ID, "shape": "pyramid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/v1/prims", map[string]any{
		"region_id": region.ID, "color": map[string]float64{"r": 2},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/v1/prims", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTile_PendingThenPNG(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.world.CreateRegion(context.Background(), "Groningen", 53.2194, 6.5665)
	require.NoError(t, err)
	path := "/api/v1/tile/17/67926/42563"

	w, resp := env.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, string(resp.Data), `"started"`)

	w, resp = env.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, string(resp.Data), `"joined"`)

	w, resp = env.do(t, http.MethodGet, "/api/v1/cache/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"loaded":0,"pending":1}`, string(resp.Data))

	env.fetcher.open()
	env.loader.Wait()

	w, _ = env.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	r, _, _, a := img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), a)
}

func TestTile_InvalidAddress(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/api/v1/tile/3/8/0",
		"/api/v1/tile/20/0/0",
		"/api/v1/tile/3/-1/0",
		"/api/v1/tile/a/0/0",
	} {
		w, _ := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestTile_UnanchoredAddressIsNotFetched(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.world.CreateRegion(context.Background(), "Groningen", 53.2194, 6.5665)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		w, resp := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/tile/19/%d/7", 1000+i), nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.False(t, resp.Success)
	}

	w, _ := env.do(t, http.MethodGet, "/api/v1/tile/16/33963/21281", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "same place at another zoom is not anchored")

	w, resp := env.do(t, http.MethodGet, "/api/v1/cache/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"loaded":0,"pending":0}`, string(resp.Data))
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.world.CreateRegion(context.Background(), "r", 1, 1)
	require.NoError(t, err)
	addr := geo.TileFor(1, 1, geo.RegionZoom)
	env.do(t, http.MethodGet, "/api/v1/tile/"+addr.String(), nil)

	w, _ := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "world_tile_cache_requests_total")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
