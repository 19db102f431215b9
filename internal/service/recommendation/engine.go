package recommendation

import (
	"cmp"
	"context"
	"slices"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"wellness-backend/internal/domain/wellness"
	"wellness-backend/internal/infrastructure/observability"
)

// MaxResults caps the ranked list handed to callers.
const MaxResults = 6

// Engine holds the current context snapshot for one user and turns it into
// a ranked list of recommendations.
type Engine struct {
	analyzers []Analyzer
	snapshot  atomic.Pointer[wellness.AnalysisContext]
	lastUsed  atomic.Int64

	now     func() time.Time
	logger  *zap.Logger
	metrics *observability.Collector
	tracer  trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock used to stamp new snapshots.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics records generation counts and latency on collector.
func WithMetrics(collector *observability.Collector) Option {
	return func(e *Engine) {
		e.metrics = collector
	}
}

// WithAnalyzers replaces the default analyzer set.
func WithAnalyzers(analyzers ...Analyzer) Option {
	return func(e *Engine) {
		e.analyzers = analyzers
	}
}

// NewEngine creates an engine with an empty snapshot stamped at the current time.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		analyzers: DefaultAnalyzers(),
		now:       time.Now,
		logger:    zap.NewNop(),
		tracer:    otel.Tracer(observability.TracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.snapshot.Store(wellness.NewAnalysisContext(nil, nil, nil, e.now()))
	e.touch()
	return e
}

func (e *Engine) touch() {
	e.lastUsed.Store(e.now().UnixNano())
}

// LastUsed is when the engine was last handed out by its registry.
func (e *Engine) LastUsed() time.Time {
	return time.Unix(0, e.lastUsed.Load())
}

func (e *Engine) idleFor() time.Duration {
	return e.now().Sub(e.LastUsed())
}

// UpdateContext replaces the snapshot wholesale. Inputs may be any length;
// only the most recent readings and sessions are retained.
func (e *Engine) UpdateContext(
	prefs *wellness.Preferences,
	biometrics []wellness.BiometricReading,
	sessions []wellness.SessionRecord,
	opts ...wellness.ContextOption,
) {
	snap := wellness.NewAnalysisContext(prefs, biometrics, sessions, e.now(), opts...)
	e.snapshot.Store(snap)

	e.logger.Debug("context updated",
		zap.Int("biometrics", len(snap.RecentBiometrics)),
		zap.Int("sessions", len(snap.SessionHistory)),
		zap.Bool("has_preferences", snap.Preferences != nil),
		zap.Bool("has_social_activity", snap.LastSocialActivity != nil),
	)
}

// Apply is UpdateContext for a signal bundle.
func (e *Engine) Apply(s *wellness.Signals) {
	if s == nil {
		e.UpdateContext(nil, nil, nil)
		return
	}
	e.UpdateContext(s.Preferences, s.Biometrics, s.Sessions, s.ContextOptions()...)
}

// Snapshot returns the current context. Callers must not modify it.
func (e *Engine) Snapshot() *wellness.AnalysisContext {
	return e.snapshot.Load()
}

// Current returns the snapshot evaluated at the engine clock's present
// instant, so time rules never see the time of the last update.
func (e *Engine) Current() *wellness.AnalysisContext {
	return e.snapshot.Load().At(e.now())
}

// GenerateRecommendations ranks recommendations for the current snapshot.
func (e *Engine) GenerateRecommendations() []wellness.Recommendation {
	return e.Recommend(context.Background())
}

// Recommend is GenerateRecommendations with tracing and metrics bound to ctx.
func (e *Engine) Recommend(ctx context.Context) []wellness.Recommendation {
	return e.RecommendFor(ctx, e.Current())
}

// RecommendFor ranks recommendations for an explicit snapshot, traced and metered.
func (e *Engine) RecommendFor(ctx context.Context, snap *wellness.AnalysisContext) []wellness.Recommendation {
	_, span := e.tracer.Start(ctx, "recommendation.generate")
	defer span.End()

	start := time.Now()
	recs := e.Generate(snap)
	elapsed := time.Since(start)

	types := make([]string, len(recs))
	for i, r := range recs {
		types[i] = string(r.Type)
	}
	e.metrics.RecordGeneration(types, elapsed)
	span.SetAttributes(attribute.Int("recommendation.count", len(recs)))

	e.logger.Debug("recommendations generated",
		zap.Int("count", len(recs)),
		zap.Strings("types", types),
		zap.Duration("elapsed", elapsed),
	)
	return recs
}

// Generate runs every analyzer over c in order, then ranks and caps the
// combined output. It is a pure function of c and never returns nil.
func (e *Engine) Generate(c *wellness.AnalysisContext) []wellness.Recommendation {
	if c == nil {
		return []wellness.Recommendation{}
	}

	var all []wellness.Recommendation
	for _, a := range e.analyzers {
		for _, r := range a.Analyze(c) {
			all = append(all, r.Normalized())
		}
	}
	return Rank(all, MaxResults)
}

// Rank stable-sorts recs by descending score and keeps at most limit entries.
// Equal scores keep their input order.
func Rank(recs []wellness.Recommendation, limit int) []wellness.Recommendation {
	out := slices.Clone(recs)
	if out == nil {
		out = []wellness.Recommendation{}
	}
	slices.SortStableFunc(out, func(a, b wellness.Recommendation) int {
		return cmp.Compare(b.Score(), a.Score())
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
