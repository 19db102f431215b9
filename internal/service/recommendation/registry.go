package recommendation

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Registry scopes one Engine to each user. Engines are created on first use
// with the registry's options. With limits set, engines idle longer than the
// idle timeout are dropped by EvictIdle, and creating an engine beyond
// maxUsers drops the least recently used one.
type Registry struct {
	mu       sync.RWMutex
	engines  map[string]*Engine
	opts     []Option
	idle     time.Duration
	maxUsers int
}

// NewRegistry creates an empty registry; opts are applied to every engine it creates.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		engines: make(map[string]*Engine),
		opts:    opts,
	}
}

// WithLimits bounds the registry. Zero disables a bound.
func (r *Registry) WithLimits(idle time.Duration, maxUsers int) *Registry {
	r.mu.Lock()
	r.idle = idle
	r.maxUsers = maxUsers
	r.mu.Unlock()
	return r
}

// Engine returns the user's engine, creating it if needed, and marks it used.
func (r *Registry) Engine(userID string) *Engine {
	r.mu.RLock()
	e, ok := r.engines[userID]
	r.mu.RUnlock()
	if ok {
		e.touch()
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.engines[userID]; ok {
		e.touch()
		return e
	}
	if r.maxUsers > 0 && len(r.engines) >= r.maxUsers {
		r.evictOldest()
	}
	e = NewEngine(r.opts...)
	r.engines[userID] = e
	return e
}

// Lookup returns the user's engine without creating it or marking it used.
func (r *Registry) Lookup(userID string) (*Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[userID]
	return e, ok
}

// Remove drops the user's engine.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	delete(r.engines, userID)
	r.mu.Unlock()
}

// EvictIdle drops every engine unused for longer than the idle timeout and
// returns how many were dropped.
func (r *Registry) EvictIdle() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.idle <= 0 {
		return 0
	}
	var n int
	for id, e := range r.engines {
		if e.idleFor() > r.idle {
			delete(r.engines, id)
			n++
		}
	}
	return n
}

// StartEviction runs EvictIdle every interval until ctx is cancelled.
func (r *Registry) StartEviction(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.EvictIdle()
			}
		}
	}()
}

// evictOldest must be called with the write lock held.
func (r *Registry) evictOldest() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range r.engines {
		if used := e.LastUsed(); oldestID == "" || used.Before(oldest) {
			oldestID, oldest = id, used
		}
	}
	delete(r.engines, oldestID)
}

// Users lists registered user IDs in sorted order.
func (r *Registry) Users() []string {
	r.mu.RLock()
	users := make([]string, 0, len(r.engines))
	for id := range r.engines {
		users = append(users, id)
	}
	r.mu.RUnlock()
	slices.Sort(users)
	return users
}

// Len returns the number of registered users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}
