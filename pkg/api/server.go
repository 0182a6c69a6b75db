// Package api serves the label generator over HTTP.
//
// The API exposes the catalog, the template presets and the generation
// pipeline as JSON endpoints on a chi router. It shares one cache manager
// and one pipeline runner with every request.
//
// # Endpoints
//
//	GET    /healthz
//	GET    /api/sets               filtered sets (?all=true skips the filter)
//	GET    /api/sets/grouped       filtered sets keyed by set type
//	GET    /api/card-types         card types per color
//	GET    /api/templates          presets (?unit=mm converts lengths)
//	POST   /api/templates/validate validation issues for a template
//	POST   /api/layout/preview     slot assignment without rendering
//	POST   /api/generate           the PDF document
//	GET    /api/cache/stats        cache counters
//	DELETE /api/cache              drop cached data
//
// Errors are returned as {"error": {"code", "message", "issues"}} with a
// status derived from the error code.
package api

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/labelsheet/pkg/cache"
	"github.com/matzehuels/labelsheet/pkg/pipeline"
)

const (
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// RequestTimeout bounds a single request, including PDF generation.
	RequestTimeout = 2 * time.Minute

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes = 1 << 20

	readHeaderTimeout = 10 * time.Second
)

// Server holds the shared state behind the HTTP handlers.
type Server struct {
	runner *pipeline.Runner
	cache  *cache.Manager
	logger *log.Logger
	router chi.Router
}

// New creates a server over runner and mgr. A nil logger uses log.Default().
func New(runner *pipeline.Runner, mgr *cache.Manager, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, cache: mgr, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/sets", s.listSets)
		r.Get("/sets/grouped", s.groupedSets)
		r.Get("/card-types", s.cardTypes)

		r.Get("/templates", s.listTemplates)
		r.Post("/templates/validate", s.validateTemplate)

		r.Post("/layout/preview", s.preview)
		r.Post("/generate", s.generate)

		r.Get("/cache/stats", s.cacheStats)
		r.Delete("/cache", s.clearCache)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is like ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
