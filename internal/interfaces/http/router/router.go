// Package router assembles the chi router and its middleware stack.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"wellness-backend/internal/config"
	"wellness-backend/internal/infrastructure/observability"
	"wellness-backend/internal/interfaces/http/handlers"
	"wellness-backend/internal/interfaces/http/middleware"
)

// Dependencies are the pieces the router mounts. Metrics may be nil.
type Dependencies struct {
	Config         *config.Config
	Recommendation *handlers.RecommendationHandler
	Health         *handlers.HealthHandler
	Verifier       middleware.TokenVerifier
	Metrics        *observability.Collector
	Logger         *zap.Logger
}

// New builds the router.
func New(deps Dependencies) *chi.Mux {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if cfg.Tracing.Enabled {
		r.Use(observability.TracingMiddleware(cfg.Tracing.ServiceName))
	}
	r.Use(observability.MetricsMiddleware(deps.Metrics))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	r.Get("/health", deps.Health.Check)
	if cfg.Metrics.Enabled && deps.Metrics != nil {
		r.Method(http.MethodGet, cfg.Metrics.Path, promhttp.HandlerFor(deps.Metrics.GetRegistry(), promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticator(deps.Verifier, logger))

		r.Put("/context", deps.Recommendation.UpdateContext)
		r.Post("/context/refresh", deps.Recommendation.RefreshContext)

		r.Get("/recommendations", deps.Recommendation.GetRecommendations)
		r.Post("/recommendations/fallback", deps.Recommendation.Fallback)
		r.Post("/recommendations/personalized", deps.Recommendation.Personalized)
		r.Delete("/recommendations/cache", deps.Recommendation.ClearCache)
	})

	return r
}
