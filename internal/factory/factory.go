package factory

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Shaydu/cache-raiders-sub000/internal/api"
	"github.com/Shaydu/cache-raiders-sub000/internal/dependencies/clock"
	"github.com/Shaydu/cache-raiders-sub000/internal/dependencies/random"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/finds"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/location"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/players"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/presence"
	"github.com/Shaydu/cache-raiders-sub000/internal/services/world"
	"github.com/Shaydu/cache-raiders-sub000/internal/storage"
	"github.com/Shaydu/cache-raiders-sub000/internal/storage/memory"
	redisstorage "github.com/Shaydu/cache-raiders-sub000/internal/storage/redis"
	"github.com/Shaydu/cache-raiders-sub000/internal/storage/retry"
	sqlitestorage "github.com/Shaydu/cache-raiders-sub000/internal/storage/sqlite"
	"github.com/Shaydu/cache-raiders-sub000/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeSQLite = "sqlite"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Realtime transport
	Hub       *ws.Hub
	Syncer    *ws.Syncer
	Resyncer  *ws.Resyncer
	WSHandler *ws.Handler

	// Services
	WorldService    *world.Service
	FindsService    *finds.Service
	PlayersService  *players.Service
	Registry        *presence.Registry
	LocationTracker *location.Tracker
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "sqlite" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// SQLitePath is the database file path (required if StorageType is "sqlite")
	SQLitePath string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// ResyncInterval overrides the periodic snapshot interval (optional)
	ResyncInterval time.Duration
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
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		sqliteStore, err := sqlitestorage.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = sqliteStore
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
		return nil, errors.New("invalid StorageType: must be 'memory', 'sqlite' or 'redis'")
	}

	clk := clock.New()
	rnd := random.New()

	return newWithDependencies(store, clk, rnd, cfg.ResyncInterval, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, resyncInterval time.Duration, logger *slog.Logger) *App {
	// All writes go through the retry wrapper
	retryStore := retry.New(store, rnd, logger)

	hub := ws.NewHub(logger)
	registry := presence.NewRegistry(logger)

	worldService := world.NewService(retryStore, clk, hub)
	findsService := finds.NewService(retryStore, clk, hub)
	playersService := players.NewService(retryStore, clk)
	tracker := location.NewTracker(retryStore, clk, hub)

	syncer := ws.NewSyncer(worldService, hub, registry, logger)
	resyncer := ws.NewResyncer(syncer, hub, logger, resyncInterval)
	wsHandler := ws.NewHandler(hub, registry, playersService, syncer, clk, logger)

	return &App{
		Storage:         retryStore,
		Clock:           clk,
		Random:          rnd,
		Hub:             hub,
		Syncer:          syncer,
		Resyncer:        resyncer,
		WSHandler:       wsHandler,
		WorldService:    worldService,
		FindsService:    findsService,
		PlayersService:  playersService,
		Registry:        registry,
		LocationTracker: tracker,
	}
}

// Router builds the HTTP handler for the app
func (a *App) Router(logger *slog.Logger) http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:          logger,
		WorldService:    a.WorldService,
		FindsService:    a.FindsService,
		PlayersService:  a.PlayersService,
		Registry:        a.Registry,
		LocationTracker: a.LocationTracker,
		Hub:             a.Hub,
		WSHandler:       a.WSHandler,
	})
}

// Close releases the app's resources
func (a *App) Close() error {
	a.Hub.Close()
	return a.Storage.Close()
}
