package device

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/veriloc/internal/dependencies/clock"
	"github.com/mcoot/veriloc/internal/metrics"
	"github.com/mcoot/veriloc/internal/middleware"
	"github.com/mcoot/veriloc/internal/sampler"
	"github.com/mcoot/veriloc/internal/services/access"
	"github.com/mcoot/veriloc/internal/services/enrollment"
	"github.com/mcoot/veriloc/internal/services/reporter"
)

// Runtime holds what both device profiles share
type Runtime struct {
	Config   Config
	Sampler  sampler.Sampler
	Clock    clock.Clock
	Registry *prometheus.Registry
	Metrics  *metrics.Device
	Logger   *slog.Logger
}

// NewRuntime wires the device counters into a fresh registry
func NewRuntime(cfg Config, s sampler.Sampler, clk clock.Clock, logger *slog.Logger) *Runtime {
	registry := prometheus.NewRegistry()
	return &Runtime{
		Config:   cfg,
		Sampler:  s,
		Clock:    clk,
		Registry: registry,
		Metrics:  metrics.NewDevice(registry),
		Logger:   logger,
	}
}

// EnrollStation builds the enrollment profile
func (rt *Runtime) EnrollStation(input IdentityInput, display Display) *EnrollStation {
	poller := sampler.NewPoller(rt.Sampler, rt.Clock, rt.Config.PollConfig())
	controller := enrollment.NewController(poller, rt.Config.IdentityRange(), rt.Clock, rt.Metrics,
		rt.Logger.With(slog.String("component", "enrollment")))
	return NewEnrollStation(controller, input, display, rt.Logger)
}

// RoomUnit builds the access profile reporting through connectivity
func (rt *Runtime) RoomUnit(input StatusInput, display Display, connectivity reporter.Connectivity) (*RoomUnit, error) {
	accessCfg, err := rt.Config.AccessConfig()
	if err != nil {
		return nil, err
	}

	rep := reporter.New(rt.Config.ServerURL, connectivity, rt.Config.RequestTimeout,
		rt.Logger.With(slog.String("component", "reporter")))
	controller := access.NewController(rt.Sampler, rep, accessCfg, rt.Clock, rt.Metrics,
		rt.Logger.With(slog.String("component", "access"), slog.String("room", accessCfg.Room)))

	return NewRoomUnit(controller, input, display, rt.Clock, RoomUnitConfig{
		PollInterval:     rt.Config.PollInterval,
		SelectionTimeout: rt.Config.SelectionTimeout,
	}, rt.Logger), nil
}

// MetricsHandler serves the device counters
func (rt *Runtime) MetricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(rt.Registry, promhttp.HandlerOpts{}))
	handler := middleware.Recovery(rt.Logger, middleware.DefaultPanicHandler)(mux)
	return middleware.Logging(rt.Logger)(handler)
}

// ServeMetrics serves /metrics on metrics_addr until ctx is cancelled.
// It returns immediately when no address is configured.
func (rt *Runtime) ServeMetrics(ctx context.Context) error {
	if rt.Config.MetricsAddr == "" {
		return nil
	}

	listener, err := net.Listen("tcp", rt.Config.MetricsAddr)
	if err != nil {
		return err
	}
	server := &http.Server{
		Handler:           rt.MetricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	rt.Logger.Info("serving device metrics", slog.String("addr", listener.Addr().String()))
	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
