package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Shaydu/cache-raiders-sub000/internal/api/handler"
	"github.com/Shaydu/cache-raiders-sub000/internal/api/middleware"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/finds"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/location"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/players"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/presence"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/world"
	"github.com/Shaydu/cache-raiders-sub000/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	WorldService    *world.Service
	FindsService    *finds.Service
	PlayersService  *players.Service
	Registry        *presence.Registry
	LocationTracker *location.Tracker
	Hub             *ws.Hub
	WSHandler       http.Handler
}

// NewRouter creates a new router with all API and websocket routes
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	objectHandler := handler.NewObjectHandler(cfg.WorldService, cfg.FindsService)
	findsHandler := handler.NewFindsHandler(cfg.FindsService)
	playerHandler := handler.NewPlayerHandler(cfg.PlayersService, cfg.Registry, cfg.LocationTracker, cfg.Hub)
	locationHandler := handler.NewLocationHandler(cfg.LocationTracker)
	statsHandler := handler.NewStatsHandler(cfg.WorldService)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Object routes
	api.HandleFunc("/objects", objectHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/objects", objectHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/objects/{id}", objectHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/objects/{id}", objectHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/objects/{id}/location", objectHandler.UpdateLocation).Methods(http.MethodPatch)
	api.HandleFunc("/objects/{id}/grounding", objectHandler.UpdateGrounding).Methods(http.MethodPatch)
	api.HandleFunc("/objects/{id}/ar-offset", objectHandler.UpdateAROffset).Methods(http.MethodPatch)
	api.HandleFunc("/objects/{id}/found", objectHandler.MarkFound).Methods(http.MethodPost)
	api.HandleFunc("/objects/{id}/unfound", objectHandler.Unfound).Methods(http.MethodPost)
	api.HandleFunc("/objects/{id}/finds", objectHandler.ListFinds).Methods(http.MethodGet)

	// Find ledger routes
	api.HandleFunc("/finds", findsHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/finds/reset", findsHandler.Reset).Methods(http.MethodPost)

	// Player routes
	api.HandleFunc("/players", playerHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/players", playerHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/players/connected", playerHandler.ListConnected).Methods(http.MethodGet)
	api.HandleFunc("/players/{device_uuid}", playerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/players/{device_uuid}", playerHandler.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/players/{device_uuid}/kick", playerHandler.Kick).Methods(http.MethodPost)

	// Live location routes
	api.HandleFunc("/locations", locationHandler.Update).Methods(http.MethodPost)
	api.HandleFunc("/locations", locationHandler.ListActive).Methods(http.MethodGet)
	api.HandleFunc("/locations/last-known", locationHandler.LastKnown).Methods(http.MethodGet)

	// Admin stats
	api.HandleFunc("/stats", statsHandler.Get).Methods(http.MethodGet)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Websocket endpoint; the handler manages its own lifecycle so it
	// skips the HTTP middleware chain
	r.Handle("/ws", cfg.WSHandler)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
