package personalization

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"wellness-backend/internal/domain/wellness"
	"wellness-backend/internal/infrastructure/cache"
	"wellness-backend/internal/infrastructure/observability"
	"wellness-backend/internal/service/fallback"
	apperrors "wellness-backend/pkg/errors"
)

// Source says which branch produced a Result.
type Source string

const (
	SourceUpstream Source = "upstream"
	SourceFallback Source = "fallback"
)

// Fallback causes, also used as metric labels.
const (
	CauseDisabled        = "disabled"
	CauseCircuitOpen     = "circuit_open"
	CauseRateLimited     = "rate_limited"
	CauseQuotaExceeded   = "quota_exceeded"
	CauseTimeout         = "timeout"
	CauseInvalidResponse = "invalid_response"
	CauseEmptyResponse   = "empty_response"
	CauseUpstreamError   = "upstream_error"
)

// Result is the outcome of a personalization request. Upstream failures are
// never surfaced as errors; they show up as Source == SourceFallback.
type Result struct {
	Recommendations []wellness.SessionRecommendation `json:"recommendations"`
	Source          Source                           `json:"source"`
	Cause           string                           `json:"cause,omitempty"`
	Cached          bool                             `json:"cached"`
}

// Request carries everything the upstream prompt is built from.
type Request struct {
	UserID         string
	Context        wellness.PersonalizationContext
	RecentSessions []wellness.SessionRecord
}

// BreakerConfig holds configuration for the upstream circuit breaker
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// Config tunes the personalization service.
type Config struct {
	Timeout    time.Duration
	MaxResults int
	Breaker    BreakerConfig
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:    8 * time.Second,
		MaxResults: fallback.MaxResults,
		Breaker: BreakerConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 0.6,
			MinRequests:      5,
		},
	}
}

// Service tries the upstream provider once and falls back to the rule table.
type Service struct {
	provider Provider
	fallback *fallback.Generator
	cache    *cache.RecommendationCache[wellness.SessionRecommendation]
	breaker  *gobreaker.CircuitBreaker
	cfg      Config

	now     func() time.Time
	logger  *zap.Logger
	metrics *observability.Collector
	tracer  trace.Tracer
}

// NewService wires the service. provider and recCache may be nil.
func NewService(
	provider Provider,
	fb *fallback.Generator,
	recCache *cache.RecommendationCache[wellness.SessionRecommendation],
	cfg Config,
	logger *zap.Logger,
	metrics *observability.Collector,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fb == nil {
		fb = fallback.NewGenerator(nil, logger)
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = fallback.MaxResults
	}

	s := &Service{
		provider: provider,
		fallback: fb,
		cache:    recCache,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer(observability.TracerName),
	}
	s.breaker = newBreaker(cfg.Breaker, logger, metrics)
	return s
}

// WithClock replaces the clock used to resolve absent context fields.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func newBreaker(cfg BreakerConfig, logger *zap.Logger, metrics *observability.Collector) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "personalization",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SetBreakerState(float64(to))
		},
	})
}

// IsAvailable reports whether an upstream provider is configured and reachable.
func (s *Service) IsAvailable() bool {
	return s.provider != nil && s.provider.IsAvailable()
}

// BreakerState exposes the circuit breaker state for health reporting.
func (s *Service) BreakerState() string {
	return s.breaker.State().String()
}

// Personalize returns upstream recommendations when possible and fallback
// recommendations otherwise. It never fails.
func (s *Service) Personalize(ctx context.Context, req Request) Result {
	ctx, span := s.tracer.Start(ctx, "personalization.personalize")
	defer span.End()

	fp := cache.FingerprintOf(req.Context)
	userCache := s.userCache(req.UserID)
	if userCache != nil {
		if recs, ok := userCache.Get(ctx, fp); ok {
			span.SetAttributes(attribute.Bool("personalization.cached", true))
			return Result{Recommendations: recs, Source: SourceUpstream, Cached: true}
		}
	}

	if !s.IsAvailable() {
		return s.useFallback(span, req, CauseDisabled, nil)
	}

	rc := req.Context.Resolved(s.now())
	out, err := s.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()

		response, err := s.provider.Complete(callCtx, buildPrompt(rc, req.RecentSessions, s.cfg.MaxResults), CompletionOptions{
			Temperature: 0.4,
			MaxTokens:   800,
			Format:      "json",
		})
		if err != nil {
			return nil, err
		}
		recs, err := parseRecommendations(response)
		if err != nil {
			return nil, &invalidResponseError{err: err}
		}
		return recs, nil
	})
	if err != nil {
		return s.useFallback(span, req, classify(err), err)
	}

	recs := s.finalize(out.([]wellness.SessionRecommendation), rc.AvailableTime)
	if len(recs) == 0 {
		return s.useFallback(span, req, CauseEmptyResponse, nil)
	}

	if userCache != nil {
		if err := userCache.Save(ctx, recs, fp); err != nil {
			s.logger.Warn("Failed to cache personalized recommendations",
				zap.String("user_id", req.UserID),
				zap.Error(err),
			)
		}
	}

	s.metrics.RecordPersonalization(string(SourceUpstream), "")
	span.SetAttributes(
		attribute.String("personalization.source", string(SourceUpstream)),
		attribute.Int("personalization.count", len(recs)),
	)
	s.logger.Info("Personalized recommendations served",
		zap.String("user_id", req.UserID),
		zap.String("source", string(SourceUpstream)),
		zap.Int("count", len(recs)),
	)
	return Result{Recommendations: recs, Source: SourceUpstream}
}

// InvalidateUser drops any cached recommendations for userID.
func (s *Service) InvalidateUser(ctx context.Context, userID string) error {
	if c := s.userCache(userID); c != nil {
		return c.Clear(ctx)
	}
	return nil
}

func (s *Service) userCache(userID string) *cache.RecommendationCache[wellness.SessionRecommendation] {
	if s.cache == nil {
		return nil
	}
	return s.cache.For(userID)
}

// finalize caps the list and clamps every entry to sane bounds.
func (s *Service) finalize(recs []wellness.SessionRecommendation, available int) []wellness.SessionRecommendation {
	if len(recs) > s.cfg.MaxResults {
		recs = recs[:s.cfg.MaxResults]
	}
	out := make([]wellness.SessionRecommendation, 0, len(recs))
	for _, r := range recs {
		if available > 0 && r.Duration > available {
			r.Duration = available
		}
		out = append(out, r.Normalized())
	}
	return out
}

func (s *Service) useFallback(span trace.Span, req Request, cause string, err error) Result {
	recs := s.fallback.Generate(req.Context)

	fields := []zap.Field{
		zap.String("user_id", req.UserID),
		zap.String("source", string(SourceFallback)),
		zap.String("cause", cause),
		zap.Int("count", len(recs)),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
		span.RecordError(err)
	}
	if cause == CauseDisabled {
		s.logger.Debug("Personalization disabled, using fallback recommendations", fields...)
	} else {
		s.logger.Warn("Personalization failed, using fallback recommendations", fields...)
		span.SetStatus(codes.Error, cause)
	}

	s.metrics.RecordPersonalization(string(SourceFallback), cause)
	span.SetAttributes(
		attribute.String("personalization.source", string(SourceFallback)),
		attribute.String("personalization.cause", cause),
	)
	return Result{Recommendations: recs, Source: SourceFallback, Cause: cause}
}

type invalidResponseError struct {
	err error
}

func (e *invalidResponseError) Error() string { return "invalid upstream response: " + e.err.Error() }
func (e *invalidResponseError) Unwrap() error { return e.err }

func classify(err error) string {
	var invalid *invalidResponseError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return CauseCircuitOpen
	case apperrors.IsRateLimit(err):
		return CauseRateLimited
	case errors.Is(err, ErrQuotaExceeded):
		return CauseQuotaExceeded
	case errors.Is(err, context.DeadlineExceeded):
		return CauseTimeout
	case errors.As(err, &invalid):
		return CauseInvalidResponse
	default:
		return CauseUpstreamError
	}
}
