package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Shaydu/cache-raiders-sub000/internal/api"
	"github.com/Shaydu/cache-raiders-sub000/internal/factory"
	redisstorage "github.com/Shaydu/cache-raiders-sub000/internal/storage/redis"
)

type serverConfig struct {
	bind           string
	port           int
	storageType    string
	sqlitePath     string
	redisURL       string
	resyncInterval time.Duration
	logLevel       string
}

func (c *serverConfig) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	switch c.storageType {
	case factory.StorageTypeMemory:
	case factory.StorageTypeSQLite:
		if c.sqlitePath == "" {
			return fmt.Errorf("--sqlite-path is required with --storage sqlite")
		}
	case factory.StorageTypeRedis:
		if c.redisURL == "" {
			return fmt.Errorf("--redis-url is required with --storage redis")
		}
	default:
		return fmt.Errorf("invalid storage type: %s", c.storageType)
	}
	return nil
}

func newCmd(cfg *serverConfig) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("RAIDERS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "raiders-server",
		Short:         "Shared world-state server for location-based collectible hunts.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: RAIDERS_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: RAIDERS_PORT)")
	fs.StringVar(&cfg.storageType, "storage", factory.StorageTypeMemory, "storage backend: memory, sqlite or redis (env: RAIDERS_STORAGE)")
	fs.StringVar(&cfg.sqlitePath, "sqlite-path", "", "sqlite database file path (env: RAIDERS_SQLITE_PATH)")
	fs.StringVar(&cfg.redisURL, "redis-url", "", "redis connection url (env: RAIDERS_REDIS_URL)")
	fs.DurationVar(&cfg.resyncInterval, "resync-interval", 5*time.Minute, "interval between periodic full resyncs (env: RAIDERS_RESYNC_INTERVAL)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level: debug, info, warn or error (env: RAIDERS_LOG_LEVEL)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}

func run(ctx context.Context, cfg *serverConfig) error {
	// Set up logging with JSON output
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.logLevel, err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	factoryCfg := factory.Config{
		Logger:         logger,
		StorageType:    cfg.storageType,
		SQLitePath:     cfg.sqlitePath,
		ResyncInterval: cfg.resyncInterval,
	}
	if cfg.storageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.redisURL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close failed", slog.Any("error", err))
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go app.Hub.Run()
	go app.Resyncer.Run(runCtx)

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.bind
	serverConfig.Port = cfg.port
	server := api.NewServer(app.Router(logger), serverConfig, logger)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			logger.Info("shutdown signal received")
			cancel()
		case <-runCtx.Done():
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-runCtx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}

func main() {
	cfg := &serverConfig{}
	cobra.CheckErr(newCmd(cfg).Execute())
}
