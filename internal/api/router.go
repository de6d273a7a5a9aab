package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/veriloc/internal/api/apierr"
	"github.com/mcoot/veriloc/internal/api/handler"
	"github.com/mcoot/veriloc/internal/api/middleware"
	"github.com/mcoot/veriloc/internal/api/sse"
	"github.com/mcoot/veriloc/internal/services/activity"
	"github.com/mcoot/veriloc/internal/services/auth"
	"github.com/mcoot/veriloc/internal/services/rooms"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	AuthService     *auth.Service
	RoomService     *rooms.Service
	ActivityService *activity.Service
	HubManager      *sse.HubManager
	// Gatherer backs /metrics; nil disables the endpoint
	Gatherer    prometheus.Gatherer
	StorageType string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})

	// Create handlers
	healthHandler := handler.NewHealthHandler(cfg.StorageType)
	adminHandler := handler.NewAdminHandler(cfg.AuthService)
	roomHandler := handler.NewRoomHandler(cfg.RoomService, cfg.HubManager)
	activityHandler := handler.NewActivityHandler(cfg.ActivityService)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	// Admin routes (login is the only public one)
	api.HandleFunc("/admins/login", adminHandler.Login).Methods(http.MethodPost)

	admins := api.PathPrefix("/admins").Subrouter()
	admins.Use(authMiddleware)
	admins.HandleFunc("/logout", adminHandler.Logout).Methods(http.MethodPost)
	admins.HandleFunc("/me", adminHandler.GetMe).Methods(http.MethodGet)
	admins.HandleFunc("", adminHandler.List).Methods(http.MethodGet)
	admins.Handle("", middleware.RequireSuperAdmin(http.HandlerFunc(adminHandler.Create))).Methods(http.MethodPost)
	admins.Handle("/{id}", middleware.RequireSuperAdmin(http.HandlerFunc(adminHandler.Update))).Methods(http.MethodPatch)
	admins.Handle("/{id}", middleware.RequireSuperAdmin(http.HandlerFunc(adminHandler.Delete))).Methods(http.MethodDelete)

	// Public room routes; fixed paths come before /{number}
	api.HandleFunc("/rooms", roomHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms/occupancy", roomHandler.Occupancy).Methods(http.MethodGet)
	api.HandleFunc("/rooms/analytics", roomHandler.Analytics).Methods(http.MethodGet)
	api.HandleFunc("/rooms/update", roomHandler.UpdateStatus).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{number}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{number}/events", roomHandler.Events).Methods(http.MethodGet)

	// Room management routes
	roomsProtected := api.PathPrefix("/rooms").Subrouter()
	roomsProtected.Use(authMiddleware)
	roomsProtected.HandleFunc("", roomHandler.Create).Methods(http.MethodPost)
	roomsProtected.HandleFunc("/{number}", roomHandler.Update).Methods(http.MethodPatch)
	roomsProtected.HandleFunc("/{number}", roomHandler.Delete).Methods(http.MethodDelete)
	roomsProtected.HandleFunc("/{number}/bookings", roomHandler.AddBooking).Methods(http.MethodPost)

	// Activity log
	activityRoutes := api.PathPrefix("/activity").Subrouter()
	activityRoutes.Use(authMiddleware)
	activityRoutes.HandleFunc("", activityHandler.List).Methods(http.MethodGet)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return r
}
