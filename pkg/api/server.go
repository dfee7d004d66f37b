// Package api serves conversion, inspection and the conversion catalog over
// HTTP. Everything under /api/v1 requires the X-API-Key header; /metrics is
// open for scraping.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ssargent/rawbin/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// Server holds the API server state
type Server struct {
	converter Converter
	catalog   Catalog // nil when the catalog is disabled
	metrics   *metrics.Metrics
	config    ServerConfig
	logger    *log.Logger
}

// NewServer creates a new API server. A nil metrics gets a private registry
// and a nil logger discards output.
func NewServer(converter Converter, cat Catalog, m *metrics.Metrics, config ServerConfig, logger *log.Logger) *Server {
	if m == nil {
		m = metrics.NewMetrics()
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Server{
		converter: converter,
		catalog:   cat,
		metrics:   m,
		config:    config,
		logger:    logger,
	}
}

// DefaultMaxUploadBytes bounds request bodies when the config leaves it unset.
const DefaultMaxUploadBytes = 512 << 20

// Router builds the HTTP handler with all routes configured
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Rawbin-Records", "X-Rawbin-Duration", "X-Rawbin-Warning"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.metrics.InstrumentAuthMiddleware(apiKeyMiddleware(s.config.APIKey)))

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Conversion
		r.Post("/convert", s.metrics.InstrumentHandler("POST", "/api/v1/convert", s.handleConvert))
		r.Post("/inspect", s.metrics.InstrumentHandler("POST", "/api/v1/inspect", s.handleInspect))

		// Catalog
		r.Get("/conversions", s.metrics.InstrumentHandler("GET", "/api/v1/conversions", s.handleListConversions))
		r.Get("/conversions/{id}", s.metrics.InstrumentHandler("GET", "/api/v1/conversions/{id}", s.handleGetConversion))
	})

	return r
}

// Addr is the listen address derived from the config
func (s *Server) Addr() string {
	return net.JoinHostPort(s.config.Bind, strconv.Itoa(s.config.Port))
}

// ListenAndServe listens on the configured address and serves until ctx is canceled
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          s.logger,
	}

	s.logger.Printf("Starting rawbin API server on %s", ln.Addr())
	s.logger.Printf("Metrics available at: http://%s/metrics", ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Printf("rawbin API server stopped")
	return nil
}
