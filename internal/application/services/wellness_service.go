// Package services orchestrates the recommendation use cases behind the HTTP
// and CLI surfaces.
package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wellness-backend/internal/domain/wellness"
	"wellness-backend/internal/infrastructure/cache"
	"wellness-backend/internal/service/fallback"
	"wellness-backend/internal/service/personalization"
	"wellness-backend/internal/service/recommendation"
	appErrors "wellness-backend/pkg/errors"
)

// RecommendationsResult is the engine output for one user.
type RecommendationsResult struct {
	Recommendations []wellness.Recommendation `json:"recommendations"`
	Cached          bool                      `json:"cached"`
	GeneratedAt     time.Time                 `json:"generatedAt"`
}

// WellnessService ties the per-user engines, their cache, the signal backend
// and the personalization path together. source and personalizer may be nil.
type WellnessService struct {
	registry     *recommendation.Registry
	source       recommendation.SignalSource
	recCache     *cache.RecommendationCache[wellness.Recommendation]
	fallback     *fallback.Generator
	personalizer *personalization.Service
	now          func() time.Time
	logger       *zap.Logger
}

// NewWellnessService creates the service.
func NewWellnessService(
	registry *recommendation.Registry,
	source recommendation.SignalSource,
	recCache *cache.RecommendationCache[wellness.Recommendation],
	fb *fallback.Generator,
	personalizer *personalization.Service,
	logger *zap.Logger,
) *WellnessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if fb == nil {
		fb = fallback.NewGenerator(nil, logger)
	}
	return &WellnessService{
		registry:     registry,
		source:       source,
		recCache:     recCache,
		fallback:     fb,
		personalizer: personalizer,
		now:          time.Now,
		logger:       logger,
	}
}

// WithClock replaces the clock used for cache fingerprints.
func (s *WellnessService) WithClock(now func() time.Time) *WellnessService {
	s.now = now
	return s
}

// UpdateContext replaces the user's snapshot with signals and drops their cached lists.
func (s *WellnessService) UpdateContext(ctx context.Context, userID string, signals *wellness.Signals) error {
	if userID == "" {
		return appErrors.NewValidation("user id is required")
	}
	if signals == nil {
		signals = &wellness.Signals{}
	}
	signals.UserID = userID

	s.registry.Engine(userID).Apply(signals)
	s.invalidate(ctx, userID)

	s.logger.Debug("Context updated",
		zap.String("user_id", userID),
		zap.Int("biometrics", len(signals.Biometrics)),
		zap.Int("sessions", len(signals.Sessions)),
	)
	return nil
}

// RefreshContext pulls the user's signals from the backend and applies them.
func (s *WellnessService) RefreshContext(ctx context.Context, userID string) error {
	if s.source == nil {
		return appErrors.NewUnavailable("signal backend is not configured", nil)
	}
	if userID == "" {
		return appErrors.NewValidation("user id is required")
	}

	signals, err := s.source.FetchSignals(ctx, userID)
	if err != nil {
		return appErrors.Wrap(err, "refresh context")
	}
	return s.UpdateContext(ctx, userID, signals)
}

// Recommendations returns the user's ranked list, reusing a cached one while
// the time-of-day bucket and the latest stress level stay put.
func (s *WellnessService) Recommendations(ctx context.Context, userID string) (*RecommendationsResult, error) {
	if userID == "" {
		return nil, appErrors.NewValidation("user id is required")
	}

	now := s.now()
	engine := s.registry.Engine(userID)
	snap := engine.Snapshot().At(now)
	fp := fingerprint(snap)

	if s.recCache != nil {
		if recs, ok := s.recCache.For(userID).Get(ctx, fp); ok {
			return &RecommendationsResult{Recommendations: recs, Cached: true, GeneratedAt: now}, nil
		}
	}

	recs := engine.RecommendFor(ctx, snap)
	if s.recCache != nil {
		if err := s.recCache.For(userID).Save(ctx, recs, fp); err != nil {
			s.logger.Warn("Failed to cache recommendations", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return &RecommendationsResult{Recommendations: recs, GeneratedAt: now}, nil
}

// Fallback runs the rule table directly.
func (s *WellnessService) Fallback(pc wellness.PersonalizationContext) []wellness.SessionRecommendation {
	return s.fallback.Generate(pc)
}

// Personalize runs the AI path. Without a personalizer it answers from the
// rule table. Recent sessions default to the user's snapshot.
func (s *WellnessService) Personalize(ctx context.Context, userID string, pc wellness.PersonalizationContext, recent []wellness.SessionRecord) personalization.Result {
	if s.personalizer == nil {
		return personalization.Result{
			Recommendations: s.fallback.Generate(pc),
			Source:          personalization.SourceFallback,
			Cause:           personalization.CauseDisabled,
		}
	}
	if len(recent) == 0 && userID != "" {
		if engine, ok := s.registry.Lookup(userID); ok {
			recent = engine.Snapshot().SessionHistory
		}
	}
	return s.personalizer.Personalize(ctx, personalization.Request{
		UserID:         userID,
		Context:        pc,
		RecentSessions: recent,
	})
}

// ClearCache drops every cached list for the user.
func (s *WellnessService) ClearCache(ctx context.Context, userID string) error {
	if userID == "" {
		return appErrors.NewValidation("user id is required")
	}
	if s.recCache != nil {
		if err := s.recCache.For(userID).Clear(ctx); err != nil {
			return appErrors.NewInternal("clear recommendation cache", err)
		}
	}
	if s.personalizer != nil {
		if err := s.personalizer.InvalidateUser(ctx, userID); err != nil {
			return appErrors.NewInternal("clear personalized cache", err)
		}
	}
	return nil
}

// BreakerState reports the AI circuit breaker state, or "disabled".
func (s *WellnessService) BreakerState() string {
	if s.personalizer == nil {
		return "disabled"
	}
	return s.personalizer.BreakerState()
}

// ActiveUsers counts users with a live engine.
func (s *WellnessService) ActiveUsers() int {
	return s.registry.Len()
}

func (s *WellnessService) invalidate(ctx context.Context, userID string) {
	if err := s.ClearCache(ctx, userID); err != nil {
		s.logger.Warn("Failed to invalidate cache", zap.String("user_id", userID), zap.Error(err))
	}
}

// fingerprint keys the engine cache on the snapshot's time-of-day bucket, in
// the user's timezone, and the latest stress reading scaled to 0-10.
func fingerprint(snap *wellness.AnalysisContext) cache.Fingerprint {
	fp := cache.Fingerprint{TimeOfDay: wellness.TimeOfDayAt(snap.CurrentTime)}
	if latest, ok := snap.LatestBiometric(); ok && latest.StressScore != nil {
		fp.Stress = wellness.Float(*latest.StressScore / 10)
	}
	return fp
}
