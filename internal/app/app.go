package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/sundayezeilo/shorty/internal/cache"
	"github.com/sundayezeilo/shorty/internal/config"
	"github.com/sundayezeilo/shorty/internal/metrics"
	"github.com/sundayezeilo/shorty/internal/server"
	"github.com/sundayezeilo/shorty/internal/shortener"
	"github.com/sundayezeilo/shorty/internal/store"
	"github.com/sundayezeilo/shorty/internal/store/filestore"
	"github.com/sundayezeilo/shorty/internal/store/mongostore"
	"github.com/sundayezeilo/shorty/internal/store/pgstore"
)

// App holds the application dependencies and configuration.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   store.Store
	Metrics *metrics.Metrics
	Server  *server.Server
	Handler *shortener.Handler

	closers []closer
}

type closer struct {
	name  string
	close func(ctx context.Context) error
}

// New initializes and returns a new App instance with all dependencies wired up.
func New(ctx context.Context) (*App, error) {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.App.LogLevel)

	logger.Info("starting application",
		"env", cfg.App.Environment,
		"version", cfg.Metrics.ServiceVersion,
		"store", cfg.Store.Backend,
	)

	a := &App{Config: cfg, Logger: logger}

	a.Store, err = a.openStore(ctx)
	if err != nil {
		a.Shutdown()
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}

	svcCfg := &shortener.ServiceConfig{
		CodeLength:  cfg.Shortener.CodeLength,
		MaxAttempts: cfg.Shortener.MaxAttempts,
		Logger:      logger,
	}

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		svcCfg.Metrics = a.Metrics
	}

	if cfg.Cache.Enabled() {
		rc, err := a.openCache(ctx)
		if err != nil {
			a.Shutdown()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		svcCfg.Cache = rc
	}

	svc := shortener.NewService(a.Store, svcCfg)
	a.Handler = shortener.NewHandler(shortener.HandlerConfig{
		Service:      svc,
		Logger:       logger,
		BaseURL:      cfg.Server.BaseURL,
		NotFoundPage: loadNotFoundPage(cfg.Server.StaticDir, logger),
	})

	a.Server = server.New(cfg, logger, a.Handler, a.Metrics)

	logger.Info("application initialized",
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"cache", cfg.Cache.Enabled(),
		"metrics", cfg.Metrics.Enabled,
	)

	return a, nil
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown releases backend connections in reverse order of acquisition.
func (a *App) Shutdown() {
	a.Logger.Info("shutting down application")

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(ctx); err != nil {
			a.Logger.Error("failed to close resource", "resource", c.name, "error", err.Error())
			continue
		}
		a.Logger.Info("resource closed", "resource", c.name)
	}
	a.closers = nil
}

func (a *App) onShutdown(name string, fn func(ctx context.Context) error) {
	a.closers = append(a.closers, closer{name: name, close: fn})
}

// openStore builds the backend selected by STORE_BACKEND.
func (a *App) openStore(ctx context.Context) (store.Store, error) {
	cfg := a.Config.Store

	switch cfg.Backend {
	case config.BackendFile:
		s, err := filestore.Open(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		a.Logger.Info("using file store", "path", s.Path())
		return s, nil

	case config.BackendMongo:
		client, err := mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		a.onShutdown("mongo", client.Disconnect)

		s, err := mongostore.New(ctx, client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection))
		if err != nil {
			return nil, err
		}
		a.Logger.Info("using mongo store",
			"database", cfg.MongoDatabase,
			"collection", cfg.MongoCollection,
		)
		return s, nil

	case config.BackendPostgres:
		pool, err := connectDatabase(ctx, cfg, a.Logger)
		if err != nil {
			return nil, err
		}
		a.onShutdown("postgres", func(context.Context) error {
			pool.Close()
			return nil
		})

		if err := pgstore.Migrate(ctx, pool); err != nil {
			return nil, err
		}
		return pgstore.New(pool, nil), nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

func (a *App) openCache(ctx context.Context) (*cache.Redis, error) {
	client, err := cache.Connect(ctx, a.Config.Cache.RedisURL)
	if err != nil {
		return nil, err
	}
	a.onShutdown("redis", func(context.Context) error { return client.Close() })

	a.Logger.Info("resolve cache enabled", "ttl", a.Config.Cache.TTL.String())
	return cache.NewRedis(client, a.Config.Cache.TTL), nil
}

// loadEnv loads .env file only in non-production environments.
func loadEnv() {
	env := os.Getenv("APP_ENV")
	if env == "" || env == "development" || env == "test" {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found.")
		}
	}
}

// setupLogger creates a structured logger based on the log level.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

// loadNotFoundPage returns 404.html from the static dir, or nil for the built-in page.
func loadNotFoundPage(staticDir string, logger *slog.Logger) []byte {
	if staticDir == "" {
		return nil
	}

	page, err := os.ReadFile(filepath.Join(staticDir, "404.html"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to read 404 page, using built-in page", "error", err.Error())
		}
		return nil
	}
	return page
}

// connectDatabase establishes a connection pool to PostgreSQL.
func connectDatabase(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns

	logger.Info("connecting to database",
		"host", poolConfig.ConnConfig.Host,
		"port", poolConfig.ConnConfig.Port,
		"database", poolConfig.ConnConfig.Database,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")

	return pool, nil
}
