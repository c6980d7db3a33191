// Package server exposes the query pipeline over HTTP: the same plain-data
// requests the CLI builds from flags, normalized, fetched, and shaped
// per request. Nothing here holds viewing state between requests.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/searchlens-labs/searchlens/internal/provider"
	"github.com/searchlens-labs/searchlens/internal/query"
	"github.com/searchlens-labs/searchlens/internal/query/preset"
	"github.com/searchlens-labs/searchlens/internal/state"
)

// Config holds the collaborators the server needs.
type Config struct {
	Addr       string
	Fetcher    provider.Fetcher
	Sites      provider.SiteLister
	Presets    *preset.Registry
	Normalizer *query.Normalizer
	Store      state.Store
	Logger     *slog.Logger
}

// Server is the REST facade over the query pipeline.
type Server struct {
	addr       string
	fetcher    provider.Fetcher
	sites      provider.SiteLister
	presets    *preset.Registry
	normalizer *query.Normalizer
	store      state.Store
	logger     *slog.Logger
}

// New creates a server from cfg.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		addr:       cfg.Addr,
		fetcher:    cfg.Fetcher,
		sites:      cfg.Sites,
		presets:    cfg.Presets,
		normalizer: cfg.Normalizer,
		store:      cfg.Store,
		logger:     logger,
	}
}

// Routes builds the router. Exposed for httptest.
func (s *Server) Routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Get("/presets", s.handlePresets)
		r.Get("/sites", s.handleSites)
	})
	return r
}

// Serve starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting server", "addr", s.addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
