package correlation

import (
	"sync"
	"time"
)

// Clock abstracts time for the cache so staleness is testable without
// sleeping. The monitor injects time.Now in production.
type Clock func() time.Time

// resultCache is a TTL cache keyed by lookback window. It is an explicit
// object owned by the Monitor, never package state, so two monitors can
// coexist and tests control eviction through the injected clock.
type resultCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   Clock
	entries map[int]cacheEntry
}

type cacheEntry struct {
	result   *MatrixResult
	storedAt time.Time
}

func newResultCache(ttl time.Duration, clock Clock) *resultCache {
	if clock == nil {
		clock = time.Now
	}
	return &resultCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[int]cacheEntry),
	}
}

// get returns the cached result for a lookback window if it is still fresh.
func (c *resultCache) get(lookbackDays int) (*MatrixResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[lookbackDays]
	if !ok || c.clock().Sub(entry.storedAt) > c.ttl {
		return nil, false
	}
	return entry.result, true
}

func (c *resultCache) put(lookbackDays int, result *MatrixResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[lookbackDays] = cacheEntry{result: result, storedAt: c.clock()}
}

// invalidate drops every cached window; used on force refresh.
func (c *resultCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int]cacheEntry)
}
