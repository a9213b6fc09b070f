// Package api provides the HTTP surface over a caller-owned search
// index.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/msrch/mailindex/internal/config"
	"github.com/msrch/mailindex/internal/engine"
)

// Server wraps the index with a chi router.
type Server struct {
	cfg         *config.Config
	idx         *engine.Index
	logger      *slog.Logger
	router      chi.Router
	server      *http.Server
	rateLimiter *RateLimiter
}

// NewServer creates the API server around an existing index.
func NewServer(cfg *config.Config, idx *engine.Index, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		idx:    idx,
		logger: logger,
	}
	s.rateLimiter = NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	s.router = s.setupRouter()
	return s
}

// Router returns the configured router, mainly for tests.
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(s.loggerMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(s.rateLimitMiddleware)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.Server.APIKey != "" {
			r.Use(s.apiKeyMiddleware)
		}

		r.Get("/search", s.handleSearch)
		r.Get("/suggest", s.handleSuggest)
		r.Get("/stats", s.handleStats)

		r.Post("/emails", s.handleUpsert)
		r.Post("/emails/bulk", s.handleBulkUpsert)
		r.Delete("/emails/{id}", s.handleRemove)

		r.Get("/snapshot", s.handleExport)
		r.Post("/snapshot", s.handleImport)
	})

	return r
}

// Start begins serving and blocks until the listener fails or Stop is
// called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("api server listening", "addr", s.cfg.Addr())
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
