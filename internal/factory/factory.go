package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mcoot/veriloc/internal/api/sse"
	"github.com/mcoot/veriloc/internal/dependencies/clock"
	"github.com/mcoot/veriloc/internal/dependencies/random"
	"github.com/mcoot/veriloc/internal/metrics"
	"github.com/mcoot/veriloc/internal/services/activity"
	"github.com/mcoot/veriloc/internal/services/auth"
	"github.com/mcoot/veriloc/internal/services/rooms"
	"github.com/mcoot/veriloc/internal/storage"
	"github.com/mcoot/veriloc/internal/storage/memory"
	redisstorage "github.com/mcoot/veriloc/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired server components
type App struct {
	// Storage
	Storage     storage.Storage
	StorageType string

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Metrics
	Registry *prometheus.Registry
	Metrics  *metrics.Server

	// Services
	ActivityService *activity.Service
	AuthService     *auth.Service
	RoomService     *rooms.Service
	HubManager      *sse.HubManager
	Broadcaster     *sse.Broadcaster
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app := newWithDependencies(store, clock.New(), random.New(), registry, cfg.AuthConfig, logger)
	app.StorageType = storageType
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	registry *prometheus.Registry,
	authCfg auth.Config,
	logger *slog.Logger,
) *App {
	serverMetrics := metrics.NewServer(registry)
	activityService := activity.New(store, clk, logger)
	authService := auth.New(store, activityService, clk, rnd, serverMetrics, logger, authCfg)
	hubManager := sse.NewHubManager(logger)
	broadcaster := sse.NewBroadcaster(hubManager, logger)
	roomService := rooms.New(store, activityService, broadcaster, clk, serverMetrics, logger, rooms.Config{
		IdentityRange: authCfg.IdentityRange,
	})

	return &App{
		Storage:         store,
		StorageType:     StorageTypeMemory,
		Clock:           clk,
		Random:          rnd,
		Registry:        registry,
		Metrics:         serverMetrics,
		ActivityService: activityService,
		AuthService:     authService,
		RoomService:     roomService,
		HubManager:      hubManager,
		Broadcaster:     broadcaster,
	}
}

// Close releases the hubs and the storage connection
func (a *App) Close() error {
	a.HubManager.Close()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
