package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sundayezeilo/shorty/internal/config"
	"github.com/sundayezeilo/shorty/internal/httpx"
	"github.com/sundayezeilo/shorty/internal/metrics"
	"github.com/sundayezeilo/shorty/internal/shortener"
)

const banner = "URL shortener is running. POST /shorten with {\"longUrl\": \"...\"} to create a link.\n"

// Server represents the HTTP server with all dependencies.
type Server struct {
	config  *config.Config
	logger  *slog.Logger
	handler *shortener.Handler
	metrics *metrics.Metrics
	server  *http.Server
}

// New creates a new Server instance. m may be nil when metrics are disabled.
func New(cfg *config.Config, logger *slog.Logger, handler *shortener.Handler, m *metrics.Metrics) *Server {
	return &Server{
		config:  cfg,
		logger:  logger,
		handler: handler,
		metrics: m,
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return s.applyMiddleware(s.setupRoutes())
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Server.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("starting http server",
			"addr", s.server.Addr,
			"env", s.config.App.Environment,
			"store", s.config.Store.Backend,
		)
		serverErrors <- s.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		s.logger.Info("received shutdown signal", "signal", sig.String())

	case <-ctx.Done():
		s.logger.Info("context cancelled, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	s.logger.Info("server stopped gracefully")
	return nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /x/health", s.healthCheckHandler)
	if s.metrics != nil {
		mux.Handle("GET /x/metrics", s.metrics.Handler())
	}

	mux.HandleFunc("POST /shorten", s.handler.Shorten)
	mux.HandleFunc("GET /api/links/{code}", s.handler.Stats)

	// Reserved names are more specific than /{code}, so they never resolve as codes.
	seen := make(map[string]bool)
	for _, name := range s.config.Server.ReservedPaths {
		if seen[name] {
			continue
		}
		seen[name] = true
		mux.HandleFunc("GET /"+name, s.staticFile(name))
	}
	mux.HandleFunc("GET /{$}", s.indexHandler)
	mux.HandleFunc("GET /{code}", s.handler.Redirect)

	return mux
}

// applyMiddleware wraps the handler with middleware in the correct order.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	chain := []httpx.Middleware{
		httpx.Recovery(s.logger), // Outermost: catch panics
		httpx.RequestID,
	}
	if s.metrics != nil {
		chain = append(chain, httpx.Metrics(s.metrics))
	}
	chain = append(chain,
		httpx.Logger(s.logger),
		httpx.CORS(s.config.Server.AllowedOrigins),
	)
	return httpx.Chain(chain...)(handler)
}

// healthCheckHandler handles health check requests.
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.config.Metrics.ServiceName,
		"version": s.config.Metrics.ServiceVersion,
	})
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	if s.config.Server.StaticDir != "" && s.serveFile(w, r, "index.html") {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(banner))
}

func (s *Server) staticFile(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.config.Server.StaticDir == "" || !s.serveFile(w, r, name) {
			http.NotFound(w, r)
		}
	}
}

// serveFile writes name from the static dir and reports whether it existed.
// http.ServeContent is used instead of http.ServeFile, which would redirect
// /index.html to ./.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, name string) bool {
	f, err := os.Open(filepath.Join(s.config.Server.StaticDir, name))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.WarnContext(r.Context(), "static file open failed", "file", name, "error", err.Error())
		}
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}

	http.ServeContent(w, r, name, info.ModTime(), f)
	return true
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("shutdown timeout exceeded, forcing close")
			return s.server.Close()
		}
		return err
	}

	return nil
}
