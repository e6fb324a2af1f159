// Package server provides the HTTP API for the postop service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/carebound/postop/internal/collect"
	"github.com/carebound/postop/internal/config"
	"github.com/carebound/postop/internal/keyword"
	"github.com/carebound/postop/internal/metrics"
	"github.com/carebound/postop/internal/pipeline"
	"github.com/carebound/postop/internal/storage"
)

// Server is the HTTP server for the postop API.
type Server struct {
	pipeline  *pipeline.Pipeline
	collector *collect.Collector
	keyword   keyword.KeywordIndex
	storage   storage.Storage
	config    *config.Config
	metrics   *metrics.Metrics
	logger    *zap.Logger
	server    *http.Server
}

// NewServer creates a server with the given dependencies. collector may
// be nil when collection is not configured; the collect endpoints then
// return 501.
func NewServer(
	pipe *pipeline.Pipeline,
	collector *collect.Collector,
	kw keyword.KeywordIndex,
	store storage.Storage,
	cfg *config.Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Server {
	return &Server{
		pipeline:  pipe,
		collector: collector,
		keyword:   kw,
		storage:   store,
		config:    cfg,
		metrics:   m,
		logger:    logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/search", s.handleSearch)

		r.Route("/pdfs", func(r chi.Router) {
			r.Get("/", s.handleListDocuments)
			r.Post("/", s.handleIngestText)
			r.Get("/{id}", s.handleGetDocument)
			r.Delete("/{id}", s.handleDeleteDocument)
			r.Post("/{id}/reanalyze", s.handleReanalyze)
		})

		r.Route("/collect", func(r chi.Router) {
			r.Post("/", s.handleCollectStart)
			r.Get("/runs", s.handleListRuns)
			r.Get("/runs/{id}", s.handleGetRun)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Get("/proposals", s.handleListProposals)
			r.Post("/discover", s.handleDiscover)
		})
	})

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
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
