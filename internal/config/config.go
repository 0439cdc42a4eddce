package config

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// reservedNamePattern matches a literal file name usable as a route segment.
var reservedNamePattern = regexp.MustCompile(`^[A-Za-z0-9._~-]+$`)

// Store backends.
const (
	BackendFile     = "file"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Cache     CacheConfig
	Shortener ShortenerConfig
	App       AppConfig
	Metrics   MetricsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"SERVER_PORT" default:"3000"`
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	BaseURL         string        `envconfig:"SERVER_BASE_URL"` // empty: derived from each request
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"10s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	StaticDir       string        `envconfig:"SERVER_STATIC_DIR"`
	ReservedPaths   []string      `envconfig:"SERVER_RESERVED_PATHS" default:"favicon.ico,robots.txt,index.html,style.css,script.js,404.html"`
	AllowedOrigins  []string      `envconfig:"SERVER_ALLOWED_ORIGINS"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("base URL must be an absolute http(s) URL, got %q", c.BaseURL)
		}
		c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	for _, p := range c.ReservedPaths {
		if p == "" || strings.Contains(p, "/") {
			return fmt.Errorf("reserved path %q must be a single non-empty path segment", p)
		}
		if !reservedNamePattern.MatchString(p) || strings.Trim(p, ".") == "" {
			return fmt.Errorf("reserved path %q must be a plain file name (letters, digits, '.', '_', '-', '~')", p)
		}
	}
	return nil
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// StoreConfig selects and configures the link store backend.
type StoreConfig struct {
	Backend         string `envconfig:"STORE_BACKEND" default:"file"`
	FilePath        string `envconfig:"STORE_FILE_PATH" default:"links.json"`
	MongoURI        string `envconfig:"MONGO_URI"`
	MongoDatabase   string `envconfig:"MONGO_DATABASE" default:"shortener"`
	MongoCollection string `envconfig:"MONGO_COLLECTION" default:"links"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	MaxConns        int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns        int32  `envconfig:"DB_MIN_CONNS" default:"1"`
}

// Validate validates the store configuration for the selected backend only.
func (c *StoreConfig) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.FilePath == "" {
			return fmt.Errorf("file path is required for the file backend")
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo backend")
		}
		if c.MongoDatabase == "" || c.MongoCollection == "" {
			return fmt.Errorf("mongo database and collection cannot be empty")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
		if c.MaxConns <= 0 {
			return fmt.Errorf("max connections must be positive")
		}
		if c.MinConns < 0 {
			return fmt.Errorf("min connections cannot be negative")
		}
		if c.MinConns > c.MaxConns {
			return fmt.Errorf("min connections (%d) cannot be greater than max connections (%d)", c.MinConns, c.MaxConns)
		}
	default:
		return fmt.Errorf("invalid store backend: %s (must be one of: file, mongo, postgres)", c.Backend)
	}
	return nil
}

// CacheConfig configures the optional Redis resolve cache.
type CacheConfig struct {
	RedisURL string        `envconfig:"REDIS_URL"` // empty disables the cache
	TTL      time.Duration `envconfig:"CACHE_TTL" default:"24h"`
}

// Enabled reports whether a cache should be built.
func (c *CacheConfig) Enabled() bool {
	return c.RedisURL != ""
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	if c.Enabled() && c.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	return nil
}

// ShortenerConfig tunes code allocation.
type ShortenerConfig struct {
	CodeLength  int `envconfig:"SHORTENER_CODE_LENGTH" default:"6"`
	MaxAttempts int `envconfig:"SHORTENER_MAX_ATTEMPTS" default:"10"`
}

// Validate validates the shortener configuration.
func (c *ShortenerConfig) Validate() error {
	if c.CodeLength < 3 || c.CodeLength > 20 {
		return fmt.Errorf("code length must be between 3 and 20, got %d", c.CodeLength)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive")
	}
	return nil
}

// AppConfig holds application-specific configuration.
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"` // development, staging, production, test
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`      // debug, info, warn, error
}

// Validate validates the app configuration.
func (c *AppConfig) Validate() error {
	validEnvs := []string{"development", "staging", "production", "test"}
	if !slices.Contains(validEnvs, c.Environment) {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Environment)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// MetricsConfig holds Prometheus and service identity configuration.
type MetricsConfig struct {
	Enabled        bool   `envconfig:"METRICS_ENABLED" default:"true"`
	ServiceName    string `envconfig:"SERVICE_NAME" default:"shortener"`
	ServiceVersion string `envconfig:"SERVICE_VERSION" default:"dev"`
}

// Validate validates the metrics configuration.
func (c *MetricsConfig) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	return nil
}

type section struct {
	name     string
	target   any
	validate func() error
}

// Load loads configuration from environment variables only.
// (Do .env loading in the app package for dev, not here.)
func Load() (*Config, error) {
	cfg := &Config{}

	sections := []section{
		{"Server", &cfg.Server, cfg.Server.Validate},
		{"Store", &cfg.Store, cfg.Store.Validate},
		{"Cache", &cfg.Cache, cfg.Cache.Validate},
		{"Shortener", &cfg.Shortener, cfg.Shortener.Validate},
		{"App", &cfg.App, cfg.App.Validate},
		{"Metrics", &cfg.Metrics, cfg.Metrics.Validate},
	}

	for _, s := range sections {
		if err := envconfig.Process("", s.target); err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", s.name, err)
		}
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("invalid %s config: %w", s.name, err)
		}
	}

	return cfg, nil
}
