package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcoot/veriloc/internal/api"
	"github.com/mcoot/veriloc/internal/factory"
	"github.com/mcoot/veriloc/internal/model"
	"github.com/mcoot/veriloc/internal/services/auth"
	redisstorage "github.com/mcoot/veriloc/internal/storage/redis"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	cfg := factory.Config{
		Logger:      logger,
		StorageType: os.Getenv("STORAGE_TYPE"),
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = app.Close() }()

	if err := bootstrapSuperAdmin(app, logger); err != nil {
		logger.Error("failed to bootstrap super admin", slog.String("error", err.Error()))
		os.Exit(1)
	}

	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		AuthService:     app.AuthService,
		RoomService:     app.RoomService,
		ActivityService: app.ActivityService,
		HubManager:      app.HubManager,
		Gatherer:        app.Registry,
		StorageType:     app.StorageType,
	})

	serverConfig, err := api.ServerConfigFromEnv()
	if err != nil {
		logger.Error("invalid server config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	server := api.NewServer(apiRouter, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go housekeeping(ctx, app)

	if err := server.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// bootstrapSuperAdmin creates the first super admin from the environment when none exists
func bootstrapSuperAdmin(app *factory.App, logger *slog.Logger) error {
	username := os.Getenv("VERILOC_SUPER_ADMIN_USERNAME")
	if username == "" {
		logger.Warn("VERILOC_SUPER_ADMIN_USERNAME not set, skipping super admin bootstrap")
		return nil
	}

	fingerprint, err := model.ParseIdentity(os.Getenv("VERILOC_SUPER_ADMIN_FINGERPRINT_ID"))
	if err != nil {
		return err
	}

	admin, created, err := app.AuthService.BootstrapSuperAdmin(context.Background(), auth.NewAdmin{
		Username:      username,
		Password:      os.Getenv("VERILOC_SUPER_ADMIN_PASSWORD"),
		Email:         os.Getenv("VERILOC_SUPER_ADMIN_EMAIL"),
		FingerprintID: fingerprint,
	})
	if err != nil {
		return err
	}
	if !created {
		logger.Info("super admin already present", slog.String("username", admin.Username))
	}
	return nil
}

// housekeeping drops expired sessions and idle SSE hubs
func housekeeping(ctx context.Context, app *factory.App) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.AuthService.CleanExpiredSessions()
			app.HubManager.CleanupEmptyHubs()
		}
	}
}

