package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TileCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "world_tile_cache_requests_total",
		Help: "Tile cache requests by outcome (loaded, joined, started)",
	}, []string{"outcome"})

	TileCacheLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "world_tile_cache_loaded",
		Help: "Number of decoded tiles held by the cache",
	})

	TileCachePending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "world_tile_cache_pending",
		Help: "Number of tile fetches currently in flight",
	})

	TileFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "world_tile_fetches_total",
		Help: "Tile fetches by result (ok, network, decode)",
	}, []string{"result"})

	TileFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "world_tile_fetch_latency_seconds",
		Help:    "Latency of upstream tile fetch and decode in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// Raw tile store metrics
	TileStoreHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "world_tile_store_hits_total",
		Help: "Total number of raw tile store hits",
	})

	TileStoreMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "world_tile_store_misses_total",
		Help: "Total number of raw tile store misses",
	})

	TileStoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "world_tile_store_errors_total",
		Help: "Total number of raw tile store errors",
	}, []string{"operation"})

	Regions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "world_regions",
		Help: "Number of regions currently placed in the world",
	})

	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "world_tick_duration_seconds",
		Help:    "Duration of one world update step in seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
	})
)
