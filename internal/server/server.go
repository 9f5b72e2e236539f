// Package server provides the HTTP API for hybridvdb.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/hybridvdb/internal/config"
	"github.com/hyperjump/hybridvdb/internal/ingest"
	"github.com/hyperjump/hybridvdb/internal/router"
)

// WatchService is the subset of the directory watcher the API manages.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the hybridvdb API.
type Server struct {
	router   *router.Router
	ingester *ingest.Ingester
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server

	watch      WatchService
	configPath string
	configMu   sync.Mutex
	gatherer   prometheus.Gatherer
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithWatch enables the watch endpoints. When configPath is set, changes to
// the watched directories are saved back to it.
func WithWatch(w WatchService, configPath string) Option {
	return func(s *Server) {
		s.watch = w
		s.configPath = configPath
	}
}

// WithGatherer serves GET /metrics from g.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a server. ingester may be nil, which disables
// POST /api/v1/ingest.
func NewServer(rt *router.Router, ingester *ingest.Ingester, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		router:   rt,
		ingester: ingester,
		config:   cfg,
		logger:   logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the API routes with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Post("/search", s.handleSearch)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/status", s.handleStatus)
		r.Get("/anchors", s.handleAnchors)
		r.Get("/clusters", s.handleClusters)
		r.Post("/maintenance/decay", s.handleDecay)
		r.Post("/vectors/permanent", s.handleAddPermanent)
		r.Post("/ingest", s.handleIngest)
		r.Get("/watch", s.handleWatchList)
		r.Post("/watch", s.handleWatchAdd)
		r.Delete("/watch", s.handleWatchRemove)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
