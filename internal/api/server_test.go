package api_test

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/veriloc/internal/api"
)

func TestServerConfigFromEnv(t *testing.T) {
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9090")

	cfg, err := api.ServerConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, api.DefaultServerConfig().ShutdownTimeout, cfg.ShutdownTimeout)

	t.Setenv("PORT", "http")
	_, err = api.ServerConfigFromEnv()
	assert.Error(t, err)
}

func TestServerRunStopsOnCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg := api.DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := api.NewServer(handler, cfg, logger)
	assert.Equal(t, "127.0.0.1:0", server.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServerRunReportsListenError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg := api.DefaultServerConfig()
	cfg.Host = "256.0.0.1"

	err := api.NewServer(http.NotFoundHandler(), cfg, logger).Run(context.Background())
	assert.Error(t, err)
}
