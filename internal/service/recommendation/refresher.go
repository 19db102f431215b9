package recommendation

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"wellness-backend/internal/domain/wellness"
	appErrors "wellness-backend/pkg/errors"
)

// DefaultRefreshInterval is how often registered users are re-read from the backend.
const DefaultRefreshInterval = 2 * time.Minute

// SignalSource loads a user's latest signals.
type SignalSource interface {
	FetchSignals(ctx context.Context, userID string) (*wellness.Signals, error)
}

// Refresher periodically pulls fresh signals for every registered user.
// A tick that fires while the previous one is still running is skipped.
type Refresher struct {
	registry *Registry
	source   SignalSource
	interval time.Duration
	logger   *zap.Logger

	running atomic.Bool
	skipped atomic.Int64
}

// NewRefresher creates a refresher. A non-positive interval uses DefaultRefreshInterval.
func NewRefresher(registry *Registry, source SignalSource, interval time.Duration, logger *zap.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		registry: registry,
		source:   source,
		interval: interval,
		logger:   logger,
	}
}

// Run refreshes on every tick until ctx is cancelled. Each tick runs in its
// own goroutine so a slow backend never delays the ticker.
func (r *Refresher) Run(ctx context.Context) {
	r.logger.Info("Starting context refresher", zap.Duration("interval", r.interval))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Context refresher shutting down")
			return
		case <-ticker.C:
			go r.Tick(ctx)
		}
	}
}

// Tick refreshes all registered users once. It returns false without doing
// anything when a previous tick is still in flight. The tick stops early once
// the backend reports itself unavailable; the remaining users keep their
// snapshots until the next tick.
func (r *Refresher) Tick(ctx context.Context) bool {
	if !r.running.CompareAndSwap(false, true) {
		r.skipped.Add(1)
		r.logger.Debug("Refresh tick skipped, previous tick still running")
		return false
	}
	defer r.running.Store(false)

	if evicted := r.registry.EvictIdle(); evicted > 0 {
		r.logger.Debug("Evicted idle engines", zap.Int("count", evicted))
	}

	users := r.registry.Users()
	var refreshed, failed int
	for _, userID := range users {
		if ctx.Err() != nil {
			break
		}
		if err := r.RefreshUser(ctx, userID); err != nil {
			failed++
			if appErrors.IsUnavailable(err) {
				r.logger.Warn("Backend unavailable, abandoning refresh tick",
					zap.Int("remaining", len(users)-refreshed-failed),
				)
				break
			}
			continue
		}
		refreshed++
	}

	r.logger.Debug("Refresh tick completed",
		zap.Int("users", len(users)),
		zap.Int("failed", failed),
	)
	return true
}

// RefreshUser fetches one user's signals and swaps them into their engine.
// On failure the previous snapshot stays in place. Refreshing does not count
// as use, and a user evicted meanwhile is not brought back.
func (r *Refresher) RefreshUser(ctx context.Context, userID string) error {
	signals, err := r.source.FetchSignals(ctx, userID)
	if err != nil {
		r.logger.Warn("Failed to refresh user context",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return err
	}
	if engine, ok := r.registry.Lookup(userID); ok {
		engine.Apply(signals)
	}
	return nil
}

// Skipped reports how many ticks were dropped because of overlap.
func (r *Refresher) Skipped() int64 {
	return r.skipped.Load()
}
