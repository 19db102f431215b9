package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"wellness-backend/internal/domain/wellness"
	"wellness-backend/internal/infrastructure/observability"
)

const (
	// DefaultTTL is how long a saved list stays valid.
	DefaultTTL = 15 * time.Minute

	// maxDelta is the largest mood or stress drift that still counts as the same context.
	maxDelta = 2.0
)

// Fingerprint is the slice of context a cached list depends on. Absent mood
// and stress are treated as 5; an absent time of day is derived from the clock
// in Timezone.
type Fingerprint struct {
	TimeOfDay wellness.TimeOfDay `json:"timeOfDay,omitempty"`
	Mood      *float64           `json:"mood,omitempty"`
	Stress    *float64           `json:"stress,omitempty"`
	Timezone  string             `json:"timezone,omitempty"`
}

// FingerprintOf extracts the cache-relevant fields of a personalization context.
func FingerprintOf(pc wellness.PersonalizationContext) Fingerprint {
	return Fingerprint{
		TimeOfDay: pc.TimeOfDay,
		Mood:      pc.CurrentMood,
		Stress:    pc.CurrentStress,
		Timezone:  pc.Timezone,
	}
}

type resolvedFingerprint struct {
	TimeOfDay wellness.TimeOfDay `json:"timeOfDay"`
	Mood      float64            `json:"mood"`
	Stress    float64            `json:"stress"`
}

func (f Fingerprint) resolve(now time.Time) resolvedFingerprint {
	r := resolvedFingerprint{
		TimeOfDay: f.TimeOfDay,
		Mood:      wellness.DefaultMood,
		Stress:    wellness.DefaultStress,
	}
	if r.TimeOfDay == "" {
		r.TimeOfDay = wellness.TimeOfDayAt(wellness.InLocation(now, wellness.LoadLocation(f.Timezone)))
	}
	if f.Mood != nil {
		r.Mood = *f.Mood
	}
	if f.Stress != nil {
		r.Stress = *f.Stress
	}
	return r
}

// matches reports whether current is close enough to r for a cached list to apply.
func (r resolvedFingerprint) matches(current resolvedFingerprint) bool {
	return math.Abs(current.Mood-r.Mood) <= maxDelta &&
		math.Abs(current.Stress-r.Stress) <= maxDelta &&
		current.TimeOfDay == r.TimeOfDay
}

type cachedEntry[T any] struct {
	Recommendations []T                 `json:"recommendations"`
	Fingerprint     resolvedFingerprint `json:"fingerprint"`
	SavedAt         time.Time           `json:"savedAt"`
}

// Option configures a RecommendationCache.
type Option func(*settings)

type settings struct {
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
	metrics *observability.Collector
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock injects the clock used for timestamps and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the cache logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics counts hits and misses on collector.
func WithMetrics(collector *observability.Collector) Option {
	return func(s *settings) {
		s.metrics = collector
	}
}

// RecommendationCache stores one recommendation list per key together with
// the context it was computed for. A cached list is served only while it is
// younger than the TTL and the requesting context has not drifted.
type RecommendationCache[T any] struct {
	store     Store
	namespace string
	key       string
	settings
}

// NewRecommendationCache creates a cache writing to store under namespace.
func NewRecommendationCache[T any](store Store, namespace string, opts ...Option) *RecommendationCache[T] {
	s := settings{
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &RecommendationCache[T]{store: store, namespace: namespace, settings: s}
}

// For returns a view of the cache scoped to key, typically a user ID.
func (c *RecommendationCache[T]) For(key string) *RecommendationCache[T] {
	scoped := *c
	scoped.key = key
	return &scoped
}

func (c *RecommendationCache[T]) storageKey() string {
	if c.key == "" {
		return c.namespace
	}
	return c.namespace + ":" + c.key
}

// Save stores recs as computed for fp.
func (c *RecommendationCache[T]) Save(ctx context.Context, recs []T, fp Fingerprint) error {
	now := c.now()
	data, err := json.Marshal(cachedEntry[T]{
		Recommendations: recs,
		Fingerprint:     fp.resolve(now),
		SavedAt:         now,
	})
	if err != nil {
		return fmt.Errorf("encode cached recommendations: %w", err)
	}
	if err := c.store.Set(ctx, c.storageKey(), data, c.ttl); err != nil {
		return fmt.Errorf("store cached recommendations: %w", err)
	}
	return nil
}

// Get returns the cached list when it is still fresh and current is within
// tolerance of the saved context. Expired or undecodable entries are deleted.
func (c *RecommendationCache[T]) Get(ctx context.Context, current Fingerprint) ([]T, bool) {
	key := c.storageKey()

	data, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		c.miss("error")
		return nil, false
	}
	if !ok {
		c.miss("absent")
		return nil, false
	}

	var e cachedEntry[T]
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		c.delete(ctx, key)
		c.miss("corrupt")
		return nil, false
	}

	now := c.now()
	if now.Sub(e.SavedAt) > c.ttl {
		c.delete(ctx, key)
		c.miss("expired")
		return nil, false
	}

	if !e.Fingerprint.matches(current.resolve(now)) {
		c.miss("context_changed")
		return nil, false
	}

	c.metrics.RecordCacheHit()
	return e.Recommendations, true
}

// Clear drops the entry for this cache's key.
func (c *RecommendationCache[T]) Clear(ctx context.Context) error {
	return c.store.Delete(ctx, c.storageKey())
}

// ClearAll drops every entry in the namespace.
func (c *RecommendationCache[T]) ClearAll(ctx context.Context) error {
	return c.store.Clear(ctx, c.namespace+"*")
}

func (c *RecommendationCache[T]) delete(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("Cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RecommendationCache[T]) miss(reason string) {
	c.metrics.RecordCacheMiss(reason)
	c.logger.Debug("Cache miss", zap.String("key", c.storageKey()), zap.String("reason", reason))
}
