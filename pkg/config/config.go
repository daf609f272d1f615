package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
		Redis     Redis     `envPrefix:"REDIS_"`
		Store     Store     `envPrefix:"STORE_"`
		TileStore TileStore `envPrefix:"TILE_STORE_"`
		Upstream  Upstream  `envPrefix:"UPSTREAM_"`
		World     World     `envPrefix:"WORLD_"`
	}

	HTTP struct {
		Server Server `envPrefix:"SERVER_"`
	}

	Server struct {
		Port         string        `env:"PORT,required" validate:"required"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level string `env:"LEVEL,required"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"guide-helper-world"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"otel-collector.observability.svc.cluster.local:4317"`
	}

	Redis struct {
		Addr     string        `env:"ADDR" envDefault:"localhost:6379"`
		Password string        `env:"PASSWORD" envDefault:""`
		DB       int           `env:"DB" envDefault:"0"`
		TTL      time.Duration `env:"TTL" envDefault:"24h"`
	}

	// Store is the durable region/prim database.
	Store struct {
		Path string `env:"PATH" envDefault:"data/regions.db" validate:"required"`
	}

	// TileStore selects the raw tile byte store sitting under the fetcher.
	TileStore struct {
		Backend string `env:"BACKEND" envDefault:"sqlite" validate:"oneof=none memory sqlite redis filesystem"`
		Path    string `env:"PATH" envDefault:"data/tiles.db"`
		Dir     string `env:"DIR" envDefault:"data/tiles"`
	}

	Upstream struct {
		Scheme        string        `env:"SCHEME" envDefault:"https" validate:"oneof=http https"`
		Host          string        `env:"HOST" envDefault:"tile.openstreetmap.org" validate:"required"`
		Ext           string        `env:"EXT" envDefault:"png" validate:"required"`
		UserAgent     string        `env:"USER_AGENT" envDefault:"GuideHelperWorld/1.0 (https://github.com/jaennil/guide_helper)"`
		Timeout       time.Duration `env:"TIMEOUT" envDefault:"30s"`
		MaxConcurrent int64         `env:"MAX_CONCURRENT" envDefault:"4" validate:"min=1"`
	}

	World struct {
		RegionZoom       uint32        `env:"REGION_ZOOM" envDefault:"17" validate:"max=19"`
		RegionSizeMeters float64       `env:"REGION_SIZE_METERS" envDefault:"256" validate:"gt=0"`
		Spacing          float64       `env:"SPACING" envDefault:"300" validate:"gtefield=RegionSizeMeters"`
		TickInterval     time.Duration `env:"TICK_INTERVAL" envDefault:"100ms" validate:"gt=0"`
		SeedDefault      bool          `env:"SEED_DEFAULT" envDefault:"true"`
		DefaultRegion    DefaultRegion `envPrefix:"DEFAULT_REGION_"`
	}

	DefaultRegion struct {
		Name      string  `env:"NAME" envDefault:"Groningen" validate:"required"`
		Latitude  float64 `env:"LATITUDE" envDefault:"53.2194" validate:"gt=-85.05,lt=85.05"`
		Longitude float64 `env:"LONGITUDE" envDefault:"6.5665" validate:"gte=-180,lte=180"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
