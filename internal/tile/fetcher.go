package tile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/jaennil/guide_helper/backend/world/internal/geo"
	"github.com/jaennil/guide_helper/backend/world/internal/repository/tilestore"
	"github.com/jaennil/guide_helper/backend/world/pkg/logger"
	"github.com/jaennil/guide_helper/backend/world/pkg/metrics"
	"github.com/jaennil/guide_helper/backend/world/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// maxTileBytes caps a single upstream response.
const maxTileBytes = 8 << 20

var errTileTooLarge = errors.New("tile too large")

type Config struct {
	Scheme    string
	Host      string
	Ext       string
	UserAgent string
	Timeout   time.Duration
}

type Fetcher struct {
	cfg        Config
	httpClient *http.Client
	store      tilestore.Store
	logger     logger.Logger
}

// NewFetcher builds a fetcher reading through store before the network.
// A nil store disables the raw tile store.
func NewFetcher(cfg Config, store tilestore.Store, l logger.Logger) *Fetcher {
	if store == nil {
		store = tilestore.Nop{}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Fetcher{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		store:  store,
		logger: l,
	}
}

// URL renders {scheme}://{host}/{zoom}/{x}/{y}.{ext}.
func (f *Fetcher) URL(addr geo.TileAddress) string {
	return fmt.Sprintf("%s://%s/%d/%d/%d.%s", f.cfg.Scheme, f.cfg.Host, addr.Zoom, addr.X, addr.Y, f.cfg.Ext)
}

// Fetch retrieves and decodes one tile. It blocks for the duration of the
// network round trip; errors are always *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, addr geo.TileAddress) (*DecodedTile, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "tile.Fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("tile.address", addr.String())),
	)
	defer span.End()

	start := time.Now()
	t, err := f.fetch(ctx, addr)
	metrics.TileFetchLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		kind := KindNetwork
		var fe *FetchError
		if errors.As(err, &fe) {
			kind = fe.Kind
		}
		metrics.TileFetches.WithLabelValues(kind.String()).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.TileFetches.WithLabelValues("ok").Inc()
	span.SetStatus(codes.Ok, "")
	return t, nil
}

func (f *Fetcher) fetch(ctx context.Context, addr geo.TileAddress) (*DecodedTile, error) {
	if data, ok := f.fromStore(ctx, addr); ok {
		t, err := decode(data)
		if err == nil {
			f.logger.Debug("tile from store", "tile", addr, "size", len(data))
			return t, nil
		}
		f.logger.Warn("stored tile is corrupt, refetching", "tile", addr, "error", err)
	}

	data, err := f.download(ctx, addr)
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, Address: addr, Err: err}
	}

	t, err := decode(data)
	if err != nil {
		return nil, &FetchError{Kind: KindDecode, Address: addr, Err: err}
	}

	if err := f.store.Set(ctx, addr, data); err != nil {
		metrics.TileStoreErrors.WithLabelValues("set").Inc()
		f.logger.Warn("failed to store tile", "tile", addr, "error", err)
	}

	return t, nil
}

func (f *Fetcher) fromStore(ctx context.Context, addr geo.TileAddress) ([]byte, bool) {
	data, ok, err := f.store.Get(ctx, addr)
	if err != nil {
		metrics.TileStoreErrors.WithLabelValues("get").Inc()
		f.logger.Warn("failed to read tile store", "tile", addr, "error", err)
		return nil, false
	}
	if !ok {
		metrics.TileStoreMisses.Inc()
		return nil, false
	}
	metrics.TileStoreHits.Inc()
	return data, true
}

func (f *Fetcher) download(ctx context.Context, addr geo.TileAddress) ([]byte, error) {
	url := f.URL(addr)
	f.logger.Debug("fetching tile from upstream", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// OpenStreetMap tile usage policy requires an identifying agent
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	startTime := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tile from upstream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxTileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read tile data: %w", err)
	}
	if len(data) > maxTileBytes {
		return nil, fmt.Errorf("%w: over %d bytes", errTileTooLarge, maxTileBytes)
	}

	f.logger.Info("fetched tile",
		"tile", addr,
		"status", resp.StatusCode,
		"size", len(data),
		"duration", time.Since(startTime),
	)

	return data, nil
}

func decode(data []byte) (*DecodedTile, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if rgba, ok := img.(*image.RGBA); ok {
		return newDecodedTile(rgba), nil
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return newDecodedTile(rgba), nil
}
