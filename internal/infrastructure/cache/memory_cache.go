// Package cache provides the key-value store behind recommendation caching
// and the context-aware recommendation cache built on top of it.
package cache

import (
	"container/list"
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store is the key-value abstraction the recommendation cache persists to.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context, pattern string) error
}

// ErrValueTooLarge is returned by Set for a value that alone exceeds the byte budget.
var ErrValueTooLarge = errors.New("value exceeds cache memory budget")

// MemoryCache is an in-process Store with LRU eviction and per-entry expiry.
// maxItems and maxBytes bound it; a non-positive bound is unlimited.
type MemoryCache struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List // front is most recently used
	maxItems int
	maxBytes int64
	bytes    int64
	stats    CacheStats
	now      func() time.Time
	logger   *zap.Logger
}

type entry struct {
	key     string
	value   []byte
	expires time.Time
}

func (e *entry) size() int64 { return int64(len(e.key) + len(e.value)) }

var _ Store = (*MemoryCache)(nil)

// NewMemoryCache creates an empty cache.
func NewMemoryCache(maxItems int, maxBytes int64, logger *zap.Logger) *MemoryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryCache{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		maxItems: maxItems,
		maxBytes: maxBytes,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock replaces the clock used for expiry.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
	return c
}

// Get returns a copy of the live value under key. Expired entries are dropped on read.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false, nil
	}
	e := el.Value.(*entry)
	if c.now().After(e.expires) {
		c.remove(el)
		c.stats.Misses++
		return nil, false, nil
	}

	c.order.MoveToFront(el)
	c.stats.Hits++
	return append([]byte(nil), e.value...), true, nil
}

// Set stores a copy of value under key for ttl, evicting least recently used
// entries until the bounds hold. A value that alone exceeds maxBytes is
// rejected with ErrValueTooLarge and nothing is stored.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry{key: key, value: append([]byte(nil), value...), expires: c.now().Add(ttl)}
	if c.maxBytes > 0 && e.size() > c.maxBytes {
		return ErrValueTooLarge
	}

	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
	for c.order.Len() > 0 && c.overBudget(e.size()) {
		c.remove(c.order.Back())
		c.stats.Evictions++
	}

	c.entries[key] = c.order.PushFront(e)
	c.bytes += e.size()
	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
	return nil
}

// Clear removes every key matching pattern: "*" matches all, a trailing "*"
// matches by prefix, anything else matches exactly.
func (c *MemoryCache) Clear(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for key, el := range c.entries {
		if matchPattern(key, pattern) {
			c.remove(el)
			removed++
		}
	}

	c.logger.Debug("Cleared cache entries", zap.String("pattern", pattern), zap.Int("count", removed))
	return nil
}

func (c *MemoryCache) overBudget(incoming int64) bool {
	if c.maxItems > 0 && len(c.entries) >= c.maxItems {
		return true
	}
	return c.maxBytes > 0 && c.bytes+incoming > c.maxBytes
}

// remove must be called with the lock held.
func (c *MemoryCache) remove(el *list.Element) {
	e := c.order.Remove(el).(*entry)
	delete(c.entries, e.key)
	c.bytes -= e.size()
}

// CacheStats counts cache activity since creation.
type CacheStats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Items     int     `json:"items"`
	Bytes     int64   `json:"bytes"`
	HitRate   float64 `json:"hitRate"`
}

// Stats returns a snapshot of the counters.
func (c *MemoryCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Items = len(c.entries)
	s.Bytes = c.bytes
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

func matchPattern(key, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(key, prefix)
	}
	return key == pattern
}

// StartCleanup sweeps expired entries every interval until ctx is cancelled.
func (c *MemoryCache) StartCleanup(ctx context.Context, interval time.Duration) {
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
				if n := c.sweep(); n > 0 {
					c.logger.Debug("Swept expired cache entries", zap.Int("count", n))
				}
			}
		}
	}()
}

func (c *MemoryCache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	var n int
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*entry).expires) {
			c.remove(el)
			n++
		}
		el = prev
	}
	return n
}
