// Package server provides the HTTP API for CineSense.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/cinesense/cinesense/internal/config"
	"github.com/cinesense/cinesense/internal/enrich"
	"github.com/cinesense/cinesense/internal/recommend"
)

// RebuildFunc re-ingests the catalog dump and publishes a new snapshot.
type RebuildFunc func(ctx context.Context) error

// Server is the HTTP server for the CineSense API.
type Server struct {
	engine   *recommend.Engine
	enricher enrich.Enricher
	rebuild  RebuildFunc
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. enricher may be
// nil for placeholder-only responses; rebuild may be nil when no dump is
// configured.
func NewServer(
	engine *recommend.Engine,
	enricher enrich.Enricher,
	rebuild RebuildFunc,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	if enricher == nil {
		enricher = enrich.Noop{}
	}
	return &Server{
		engine:   engine,
		enricher: enricher,
		rebuild:  rebuild,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router. Exposed separately so tests can drive the
// handlers without a listening socket.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/recommend", s.handleRecommend)
	r.Get("/api/browse/{type}", s.handleBrowse)
	r.Get("/api/v1/status", s.handleStatus)
	r.Post("/api/v1/rebuild", s.handleRebuild)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
