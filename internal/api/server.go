// Package api exposes the HTTP interface for the URL insights service.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/JakeFAU/url-insights/internal/config"
	"github.com/JakeFAU/url-insights/internal/insight"
	"github.com/JakeFAU/url-insights/internal/metrics"
	"github.com/JakeFAU/url-insights/internal/ratelimit"
	"go.uber.org/zap"
)

// Server wires HTTP handlers to the parse service and the rate limiter.
type Server struct {
	router  chi.Router
	svc     *insight.Service
	limiter *ratelimit.Limiter
	logger  *zap.Logger
	cfg     config.Config
}

// NewServer constructs a Server with middleware and routes.
func NewServer(svc *insight.Service, limiter *ratelimit.Limiter, logger *zap.Logger, cfg config.Config) *Server {
	s := &Server{
		svc:     svc,
		limiter: limiter,
		logger:  logger,
		cfg:     cfg,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(securityHeadersMiddleware)
	// Permissive CORS; tighten before exposing beyond trusted origins.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"ETag", "X-Request-ID"},
	}))
	r.Use(metricsMiddleware)

	r.Get("/v1/health", s.health)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.bodyLimitMiddleware(cfg.Server.MaxBodyBytes))
		r.Use(s.rateLimitMiddleware)

		r.Post("/v1/parse", s.handleParse)
		r.Post("/v1/metadata", s.projectionHandler("meta", func(rec insight.Record) any {
			return insight.ProjectMetadata(rec)
		}))
		r.Post("/v1/summary", s.projectionHandler("sum", func(rec insight.Record) any {
			return insight.ProjectSummary(rec)
		}))
		r.Post("/v1/preview", s.projectionHandler("prev", func(rec insight.Record) any {
			return insight.ProjectPreview(rec)
		}))
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, map[string]string{"status": "ready"})
}
