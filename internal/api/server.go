// Package api serves the JSON HTTP API used by the desktop front-end.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/net/netutil"

	"github.com/deskai/deskai/internal/history"
	"github.com/deskai/deskai/internal/model"
	"github.com/deskai/deskai/internal/router"
	"github.com/deskai/deskai/internal/stats"
	"github.com/deskai/deskai/internal/tools"
)

// Deps are the components the API serves. History may be nil.
type Deps struct {
	Router  *router.Router
	Tools   *tools.Registry
	Catalog *model.Catalog
	Backend model.Backend
	History *history.Store
	Stats   *stats.Collector
}

// Options configures the HTTP server.
type Options struct {
	MaxConnections int
	RequestTimeout time.Duration
}

type Server struct {
	deps   Deps
	opts   Options
	logger zerolog.Logger
}

func NewServer(deps Deps, opts Options, logger zerolog.Logger) *Server {
	if deps.Stats == nil {
		deps.Stats = stats.NewCollector()
	}
	return &Server{
		deps:   deps,
		opts:   opts,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	if s.opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/route", s.handleRoute)
		r.Get("/tools", s.handleListTools)
		r.Post("/tools/{name}", s.handleRunTool)
		r.Get("/models", s.handleListModels)
		r.Get("/models/available", s.handleAvailableModels)
		r.Get("/status", s.handleStatus)
		r.Get("/history", s.handleHistory)
		r.Get("/stats", s.handleStats)
		r.Get("/health", s.handleHealth)
	})

	return r
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. Concurrent connections are capped at MaxConnections.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.opts.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.opts.MaxConnections)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info().Str("addr", ln.Addr().String()).Msg("starting API server")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		}()

		next.ServeHTTP(ww, r)
	})
}
