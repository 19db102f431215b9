package personalization_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellness-backend/internal/domain/wellness"
	"wellness-backend/internal/infrastructure/cache"
	"wellness-backend/internal/service/fallback"
	"wellness-backend/internal/service/personalization"
	apperrors "wellness-backend/pkg/errors"
)

func afternoon() time.Time {
	return time.Date(2025, time.March, 12, 14, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T {
	return &v
}

const upstreamJSON = `{"recommendations": [
  {"id": "ai-box-breathing", "title": "Box Breathing", "description": "Four-count breathing", "sessionType": "breathing",
   "duration": 12, "difficulty": "beginner", "confidence": 0.92, "reasoning": ["High stress"],
   "expectedBenefits": {"moodImprovement": 6, "stressReduction": 8, "focusImprovement": 6}}
]}`

func newService(provider personalization.Provider, recCache *cache.RecommendationCache[wellness.SessionRecommendation]) *personalization.Service {
	cfg := personalization.DefaultConfig()
	cfg.Timeout = 100 * time.Millisecond
	return personalization.NewService(
		provider,
		fallback.NewGenerator(afternoon, nil),
		recCache,
		cfg,
		nil,
		nil,
	).WithClock(afternoon)
}

func TestPersonalize(t *testing.T) {
	ctx := context.Background()
	stressed := personalization.Request{
		UserID:  "user-1",
		Context: wellness.PersonalizationContext{CurrentStress: ptr(8.0), AvailableTime: ptr(10)},
	}

	t.Run("Should return upstream recommendations", func(t *testing.T) {
		provider := personalization.NewMockProvider()
		provider.SetResponse(upstreamJSON)

		result := newService(provider, nil).Personalize(ctx, stressed)

		assert.Equal(t, personalization.SourceUpstream, result.Source)
		require.Len(t, result.Recommendations, 1)
		assert.Equal(t, "ai-box-breathing", result.Recommendations[0].ID)
		assert.Equal(t, 10, result.Recommendations[0].Duration, "duration capped to available time")
	})

	t.Run("Should parse fenced default mock output", func(t *testing.T) {
		result := newService(personalization.NewMockProvider(), nil).Personalize(ctx, stressed)

		assert.Equal(t, personalization.SourceUpstream, result.Source)
		require.NotEmpty(t, result.Recommendations)
	})

	t.Run("Should fall back when no provider is configured", func(t *testing.T) {
		result := newService(nil, nil).Personalize(ctx, stressed)

		assert.Equal(t, personalization.SourceFallback, result.Source)
		assert.Equal(t, personalization.CauseDisabled, result.Cause)
		assert.Equal(t, "fallback-stress-relief", result.Recommendations[0].ID)
	})

	t.Run("Should classify upstream failures", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want string
		}{
			{"rate limit", apperrors.NewRateLimit("slow down"), personalization.CauseRateLimited},
			{"quota", personalization.ErrQuotaExceeded, personalization.CauseQuotaExceeded},
			{"timeout", context.DeadlineExceeded, personalization.CauseTimeout},
			{"other", errors.New("connection reset"), personalization.CauseUpstreamError},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				provider := personalization.NewMockProvider()
				provider.SetError(tt.err)

				result := newService(provider, nil).Personalize(ctx, stressed)

				assert.Equal(t, personalization.SourceFallback, result.Source)
				assert.Equal(t, tt.want, result.Cause)
				assert.NotEmpty(t, result.Recommendations)
				assert.Equal(t, 1, provider.Calls(), "no retries")
			})
		}
	})

	t.Run("Should fall back on malformed or empty output", func(t *testing.T) {
		for response, cause := range map[string]string{
			"I think you should meditate":    personalization.CauseInvalidResponse,
			`{"recommendations": []}`:        personalization.CauseEmptyResponse,
			`[{"id": "", "title": "No id"}]`: personalization.CauseEmptyResponse,
		} {
			provider := personalization.NewMockProvider()
			provider.SetResponse(response)

			result := newService(provider, nil).Personalize(ctx, stressed)

			assert.Equal(t, personalization.SourceFallback, result.Source, response)
			assert.Equal(t, cause, result.Cause, response)
		}
	})

	t.Run("Should open the circuit after repeated failures", func(t *testing.T) {
		provider := personalization.NewMockProvider()
		provider.SetError(errors.New("upstream down"))
		svc := newService(provider, nil)

		for i := 0; i < 5; i++ {
			svc.Personalize(ctx, stressed)
		}
		result := svc.Personalize(ctx, stressed)

		assert.Equal(t, personalization.CauseCircuitOpen, result.Cause)
		assert.Equal(t, 5, provider.Calls())
		assert.Equal(t, "open", svc.BreakerState())
	})

	t.Run("Should serve repeat requests from the cache", func(t *testing.T) {
		provider := personalization.NewMockProvider()
		provider.SetResponse(upstreamJSON)
		recCache := cache.NewRecommendationCache[wellness.SessionRecommendation](
			cache.NewMemoryCache(100, 1<<20, nil), "personalized", cache.WithClock(afternoon))
		svc := newService(provider, recCache)

		first := svc.Personalize(ctx, stressed)
		second := svc.Personalize(ctx, stressed)

		assert.False(t, first.Cached)
		assert.True(t, second.Cached)
		assert.Equal(t, first.Recommendations, second.Recommendations)
		assert.Equal(t, 1, provider.Calls())

		calmer := stressed
		calmer.Context.CurrentStress = ptr(3.0)
		third := svc.Personalize(ctx, calmer)
		assert.False(t, third.Cached)
		assert.Equal(t, 2, provider.Calls())

		require.NoError(t, svc.InvalidateUser(ctx, "user-1"))
		assert.False(t, svc.Personalize(ctx, calmer).Cached)
	})

	t.Run("Should not cache fallback results", func(t *testing.T) {
		recCache := cache.NewRecommendationCache[wellness.SessionRecommendation](
			cache.NewMemoryCache(100, 1<<20, nil), "personalized", cache.WithClock(afternoon))
		svc := newService(nil, recCache)

		svc.Personalize(ctx, stressed)
		result := svc.Personalize(ctx, stressed)

		assert.False(t, result.Cached)
		assert.Equal(t, personalization.SourceFallback, result.Source)
	})
}
