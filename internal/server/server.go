// Package server provides the HTTP API for paperscope.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/paperscope/paperscope/internal/config"
	"github.com/paperscope/paperscope/internal/semantic"
	"github.com/paperscope/paperscope/internal/storage"
)

// Server is the HTTP server for the paperscope API.
type Server struct {
	engine *semantic.Engine
	db     *storage.DB
	cfg    *config.Config
	logger *zap.Logger
	server *http.Server
	stop   chan struct{}
}

// New creates a server with the given dependencies.
func New(engine *semantic.Engine, db *storage.DB, cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine: engine,
		db:     db,
		cfg:    cfg,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/papers/recent", s.handleRecent)
		r.Get("/papers/{id}", s.handleGetPaper)
		r.Get("/papers/{id}/similar", s.handleSimilar)
		r.Get("/hype", s.handleHype)
		r.Post("/reload", s.handleReload)

		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Post("/auth/logout", s.handleLogout)
			r.Get("/library", s.handleLibrary)
			r.Post("/library/{id}", s.handleLibraryAdd)
			r.Delete("/library/{id}", s.handleLibraryRemove)
			r.Get("/recommend", s.handleRecommend)
		})
	})

	return r
}

// Start loads the cache, starts the background reload ticker and serves
// HTTP until Stop is called.
func (s *Server) Start() error {
	// Initial load; an unreachable store is fatal at startup, an empty
	// one is not.
	stats, err := s.engine.Cache().Reload(context.Background(), s.db)
	if err != nil {
		return err
	}
	s.logger.Info("embedding cache loaded",
		zap.Int("loaded", stats.Loaded), zap.Int("skipped", stats.Skipped))

	if interval := s.cfg.ReloadInterval(); interval > 0 {
		go s.reloadLoop(interval)
	}

	s.server = &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.Router(),
	}
	s.logger.Info("starting server", zap.String("addr", s.cfg.Addr()))
	err = s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server and the reload ticker.
func (s *Server) Stop(ctx context.Context) error {
	close(s.stop)
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// reloadLoop periodically refreshes the embedding cache. A failed
// reload keeps the previous snapshot, so queries stay serviceable.
func (s *Server) reloadLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			stats, err := s.engine.Cache().Reload(context.Background(), s.db)
			if err != nil {
				s.logger.Warn("background reload failed", zap.Error(err))
				continue
			}
			s.logger.Info("embedding cache reloaded",
				zap.Int("loaded", stats.Loaded), zap.Int("skipped", stats.Skipped))
		}
	}
}
