// Package api exposes the matching engine and the provider catalog over HTTP
// next to the job workers.
package api

import (
	"context"
	"net/http"
	"time"

	"coach-matching/internal/catalog"
	"coach-matching/internal/common/logger"
	"coach-matching/internal/common/validation"
	"coach-matching/internal/matching"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Refresher reloads the catalog, bypassing caches.
type Refresher interface {
	Refresh(ctx context.Context) (*catalog.Catalog, error)
}

type Deps struct {
	Source    catalog.Source
	Refresher Refresher // optional
	Engine    *matching.Engine
	Validator *validation.SchemaValidator
	Checks    map[string]Check
	Logger    logger.Logger
}

type Server struct {
	deps    Deps
	matcher *matching.Matcher
}

func NewRouter(deps Deps) http.Handler {
	s := &Server{deps: deps, matcher: matching.NewMatcher(deps.Engine, deps.Source)}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/providers", s.listProviders)
		r.Post("/providers/match", s.matchProviders)
		if deps.Refresher != nil {
			r.Post("/catalog/refresh", s.refreshCatalog)
		}
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.deps.Logger.Debug("http request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  middleware.GetReqID(r.Context()),
		})
	})
}
