package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	v1 "github.com/jaennil/guide_helper/backend/world/internal/infrastructure/http/v1"
	"github.com/jaennil/guide_helper/backend/world/internal/infrastructure/http/v1/handler"
	"github.com/jaennil/guide_helper/backend/world/internal/repository/tilestore"
	"github.com/jaennil/guide_helper/backend/world/internal/repository/world"
	"github.com/jaennil/guide_helper/backend/world/internal/tile"
	"github.com/jaennil/guide_helper/backend/world/internal/tilecache"
	"github.com/jaennil/guide_helper/backend/world/internal/usecase"
	"github.com/jaennil/guide_helper/backend/world/pkg/config"
	"github.com/jaennil/guide_helper/backend/world/pkg/http_server"
	"github.com/jaennil/guide_helper/backend/world/pkg/logger"
	"github.com/jaennil/guide_helper/backend/world/pkg/telemetry"
)

func Run(cfg *config.Config) {
	l := logger.NewZapLogger(cfg.Logger).With("service", cfg.Telemetry.ServiceName)
	defer l.Sync()

	l.Info("app config", "cfg", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logger.WithLogger(ctx, l)

	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := telemetry.InitTracer(telemetry.Config{
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: cfg.Telemetry.ServiceVersion,
			Environment:    cfg.Telemetry.Environment,
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		}, l)
		if err != nil {
			l.Fatal("failed to initialize telemetry", "error", err)
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				l.Error("failed to shutdown telemetry", "error", err)
			}
		}()
		l.Info("telemetry initialized", "service", cfg.Telemetry.ServiceName)
	}

	tileStore, err := newTileStore(cfg, l)
	if err != nil {
		l.Fatal("failed to initialize tile store", "backend", cfg.TileStore.Backend, "error", err)
	}
	if closer, ok := tileStore.(io.Closer); ok {
		defer closer.Close()
	}

	fetcher := tile.NewFetcher(tile.Config{
		Scheme:    cfg.Upstream.Scheme,
		Host:      cfg.Upstream.Host,
		Ext:       cfg.Upstream.Ext,
		UserAgent: cfg.Upstream.UserAgent,
		Timeout:   cfg.Upstream.Timeout,
	}, tileStore, l)

	loader := tilecache.NewLoader(tilecache.New(l), fetcher, cfg.Upstream.MaxConcurrent, l)

	if err := ensureDir(cfg.Store.Path); err != nil {
		l.Fatal("failed to create world store directory", "error", err)
	}
	worldRepo, err := world.NewRepository(cfg.Store.Path, l)
	if err != nil {
		l.Fatal("failed to initialize world store", "error", err)
	}
	defer worldRepo.Close()

	worldUseCase := usecase.NewWorldUseCase(worldRepo, loader, usecase.WorldConfig{
		RegionZoom: cfg.World.RegionZoom,
		Spacing:    cfg.World.Spacing,
	}, l)

	if cfg.World.SeedDefault {
		def := cfg.World.DefaultRegion
		seeded, err := worldUseCase.EnsureDefaultRegion(ctx, usecase.DefaultRegion{
			Name:      def.Name,
			Latitude:  def.Latitude,
			Longitude: def.Longitude,
		})
		if err != nil {
			// the world loop loads again on its first tick
			l.Error("failed to seed default region", "error", err)
		} else if seeded {
			l.Info("default region seeded", "name", def.Name)
		}
	}

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		worldUseCase.Run(ctx, cfg.World.TickInterval)
	}()

	validate := validator.New()
	h := handler.NewHandler(validate, worldUseCase, loader)
	router := v1.NewRouter(h, l, cfg.Telemetry.Enabled)

	httpServer := http_server.NewServer(ctx, cfg.HTTP.Server, router)

	go func() {
		l.Info("starting http server...", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("http server failed", "error", err)
		}
		l.Info("http server stopped", "address", httpServer.Addr)
	}()

	<-ctx.Done()
	l.Info("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	l.Info("shutting down http server...", "address", httpServer.Addr)
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Error("http server shutdown failed", "error", err)
	} else {
		l.Info("http server shutdown completed")
	}

	<-worldDone

	l.Info("waiting for tile fetches to finish")
	loader.Wait()

	l.Info("application shutdown completed")
}

func newTileStore(cfg *config.Config, l logger.Logger) (tilestore.Store, error) {
	switch cfg.TileStore.Backend {
	case "none":
		return tilestore.Nop{}, nil
	case "memory":
		return tilestore.NewMemoryStore(), nil
	case "sqlite":
		if err := ensureDir(cfg.TileStore.Path); err != nil {
			return nil, err
		}
		return tilestore.NewSQLiteStore(cfg.TileStore.Path, l)
	case "redis":
		return tilestore.NewRedisStore(tilestore.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
	case "filesystem":
		return tilestore.NewFilesystemStore(cfg.TileStore.Dir)
	}
	return nil, fmt.Errorf("unknown tile store backend %q", cfg.TileStore.Backend)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
