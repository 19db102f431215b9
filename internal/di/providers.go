// Package di wires the application with Google Wire.
package di

import (
	"context"
	"fmt"

	"github.com/go-chi/chi/v5"
	"github.com/google/wire"
	supabasego "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"wellness-backend/internal/application/services"
	"wellness-backend/internal/config"
	"wellness-backend/internal/domain/wellness"
	"wellness-backend/internal/infrastructure/cache"
	"wellness-backend/internal/infrastructure/observability"
	"wellness-backend/internal/infrastructure/supabase"
	"wellness-backend/internal/interfaces/http/handlers"
	"wellness-backend/internal/interfaces/http/middleware"
	"wellness-backend/internal/interfaces/http/router"
	"wellness-backend/internal/service/fallback"
	"wellness-backend/internal/service/personalization"
	"wellness-backend/internal/service/recommendation"
)

// Version is stamped at build time.
var Version = "dev"

// Container holds the long-lived application components.
type Container struct {
	Config    *config.Config
	Logging   *Logging
	Metrics   *observability.Collector
	Tracing   *observability.TracerProvider
	Store     *cache.MemoryCache
	Registry  *recommendation.Registry
	Refresher *recommendation.Refresher
	Service   *services.WellnessService
	Router    *chi.Mux
}

// Logging bundles the logger with its adjustable level.
type Logging struct {
	Logger *zap.Logger
	Level  zap.AtomicLevel
}

// ConfigProviders derive logging from configuration.
var ConfigProviders = wire.NewSet(
	ProvideLogging,
	ProvideLogger,
)

// InfrastructureProviders build clients, caches and telemetry.
var InfrastructureProviders = wire.NewSet(
	ProvideMetrics,
	ProvideTracing,
	ProvideSupabaseClient,
	ProvideSignalRepository,
	ProvideSignalSource,
	ProvideTokenVerifier,
	ProvideMemoryCache,
	wire.Bind(new(cache.Store), new(*cache.MemoryCache)),
	ProvideEngineCache,
	ProvideSessionCache,
)

// DomainProviders build the engines and recommendation services.
var DomainProviders = wire.NewSet(
	ProvideRegistry,
	ProvideRefresher,
	ProvideFallbackGenerator,
	ProvideCompletionProvider,
	ProvidePersonalizationService,
	ProvideWellnessService,
)

// InterfaceProviders build the HTTP surface.
var InterfaceProviders = wire.NewSet(
	ProvideRecommendationHandler,
	ProvideHealthHandler,
	ProvideRouter,
)

// SuperSet is every provider the application needs.
var SuperSet = wire.NewSet(
	ConfigProviders,
	InfrastructureProviders,
	DomainProviders,
	InterfaceProviders,
	wire.Struct(new(Container), "*"),
)

// ProvideLogging builds the zap logger for the configured environment.
func ProvideLogging(cfg *config.Config) (*Logging, func(), error) {
	logger, level, err := observability.NewLogger(string(cfg.Environment), cfg.Logging.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	cleanup := func() { _ = logger.Sync() }
	return &Logging{Logger: logger, Level: level}, cleanup, nil
}

func ProvideLogger(l *Logging) *zap.Logger {
	return l.Logger
}

// ProvideMetrics returns nil when metrics are disabled; every recorder is nil-safe.
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return observability.NewCollector(cfg.Metrics.Namespace)
}

// ProvideTracing installs the OTLP exporter when tracing is enabled.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.Tracing.Enabled {
		return nil, func() {}, nil
	}
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: cfg.Tracing.ServiceName,
		Environment: string(cfg.Environment),
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Tracing enabled", zap.String("endpoint", cfg.Tracing.Endpoint))
	cleanup := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideSupabaseClient returns nil when no backend is configured.
func ProvideSupabaseClient(cfg *config.Config, logger *zap.Logger) (*supabasego.Client, error) {
	if !cfg.HasBackend() {
		logger.Warn("Supabase not configured, context refresh and token checks are disabled")
		return nil, nil
	}
	return supabase.NewClient(supabase.Config{
		URL:            cfg.Supabase.URL,
		ServiceRoleKey: cfg.Supabase.ServiceRoleKey,
		Schema:         cfg.Supabase.Schema,
	})
}

func ProvideSignalRepository(client *supabasego.Client, logger *zap.Logger, metrics *observability.Collector) *supabase.SignalRepository {
	if client == nil {
		return nil
	}
	return supabase.NewSignalRepository(client, logger, metrics)
}

// ProvideSignalSource avoids handing out a typed nil.
func ProvideSignalSource(repo *supabase.SignalRepository) recommendation.SignalSource {
	if repo == nil {
		return nil
	}
	return repo
}

func ProvideTokenVerifier(client *supabasego.Client, logger *zap.Logger) middleware.TokenVerifier {
	if client == nil {
		return nil
	}
	return supabase.NewTokenVerifier(client, logger)
}

func ProvideMemoryCache(cfg *config.Config, logger *zap.Logger) *cache.MemoryCache {
	return cache.NewMemoryCache(cfg.Cache.MaxItems, 0, logger)
}

func ProvideEngineCache(store cache.Store, cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) *cache.RecommendationCache[wellness.Recommendation] {
	return cache.NewRecommendationCache[wellness.Recommendation](store, "engine",
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithLogger(logger),
		cache.WithMetrics(metrics),
	)
}

func ProvideSessionCache(store cache.Store, cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) *cache.RecommendationCache[wellness.SessionRecommendation] {
	return cache.NewRecommendationCache[wellness.SessionRecommendation](store, "personalized",
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithLogger(logger),
		cache.WithMetrics(metrics),
	)
}

func ProvideRegistry(cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) *recommendation.Registry {
	return recommendation.NewRegistry(
		recommendation.WithLogger(logger),
		recommendation.WithMetrics(metrics),
	).WithLimits(cfg.Recommendation.IdleTimeout, cfg.Recommendation.MaxUsers)
}

// ProvideRefresher returns nil when there is nothing to refresh from.
func ProvideRefresher(cfg *config.Config, registry *recommendation.Registry, source recommendation.SignalSource, logger *zap.Logger) *recommendation.Refresher {
	if source == nil || !cfg.Recommendation.EnableRefresher {
		return nil
	}
	return recommendation.NewRefresher(registry, source, cfg.Recommendation.RefreshInterval, logger)
}

func ProvideFallbackGenerator(logger *zap.Logger) *fallback.Generator {
	return fallback.NewGenerator(nil, logger)
}

// ProvideCompletionProvider returns nil when the AI path is disabled.
func ProvideCompletionProvider(cfg *config.Config) (personalization.Provider, error) {
	if !cfg.Personalization.Enabled {
		return nil, nil
	}
	provider, err := personalization.NewHTTPProvider(personalization.HTTPConfig{
		Endpoint: cfg.Personalization.Endpoint,
		APIKey:   cfg.Personalization.APIKey,
		Timeout:  cfg.Personalization.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// ProvidePersonalizationService returns nil without a provider.
func ProvidePersonalizationService(
	cfg *config.Config,
	provider personalization.Provider,
	fb *fallback.Generator,
	sessionCache *cache.RecommendationCache[wellness.SessionRecommendation],
	logger *zap.Logger,
	metrics *observability.Collector,
) *personalization.Service {
	if provider == nil {
		return nil
	}
	pcfg := personalization.DefaultConfig()
	pcfg.Timeout = cfg.Personalization.Timeout
	pcfg.Breaker.Timeout = cfg.Personalization.BreakerTimeout
	pcfg.Breaker.FailureThreshold = cfg.Personalization.FailureThreshold
	pcfg.Breaker.MinRequests = cfg.Personalization.MinRequests
	return personalization.NewService(provider, fb, sessionCache, pcfg, logger, metrics)
}

func ProvideWellnessService(
	registry *recommendation.Registry,
	source recommendation.SignalSource,
	engineCache *cache.RecommendationCache[wellness.Recommendation],
	fb *fallback.Generator,
	personalizer *personalization.Service,
	logger *zap.Logger,
) *services.WellnessService {
	return services.NewWellnessService(registry, source, engineCache, fb, personalizer, logger)
}

func ProvideRecommendationHandler(service *services.WellnessService, logger *zap.Logger) *handlers.RecommendationHandler {
	return handlers.NewRecommendationHandler(service, logger)
}

func ProvideHealthHandler(service *services.WellnessService) *handlers.HealthHandler {
	return handlers.NewHealthHandler(service, Version)
}

func ProvideRouter(
	cfg *config.Config,
	recHandler *handlers.RecommendationHandler,
	health *handlers.HealthHandler,
	verifier middleware.TokenVerifier,
	metrics *observability.Collector,
	logger *zap.Logger,
) *chi.Mux {
	return router.New(router.Dependencies{
		Config:         cfg,
		Recommendation: recHandler,
		Health:         health,
		Verifier:       verifier,
		Metrics:        metrics,
		Logger:         logger,
	})
}
