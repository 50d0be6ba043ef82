// Package cache provides a keyed, time-windowed memo for expensive
// computations and external fetches.
package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yourusername/edge-finder/internal/metrics"
)

// Key identifies a cached value by category, sport, and a caller-supplied
// reference (game ID, player ID, market hash).
type Key struct {
	Category string
	Sport    string
	Ref      string
}

// String returns the string form used for storage.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Category, k.Sport, k.Ref)
}

// TTLCache memoizes values for a caller-supplied duration. The cache itself
// is category-agnostic: every Set and Fetch carries its own TTL, and
// staleness is checked lazily on read, so no sweeper is required for
// correctness. Safe for concurrent use; Fetch serializes recomputation
// per key so concurrent callers never compute the same value twice.
type TTLCache struct {
	store *gocache.Cache

	mu        sync.Mutex
	keyLocks  map[string]*sync.Mutex
	hitCount  uint64
	missCount uint64
	statsMu   sync.RWMutex
}

// New creates an empty cache. The sweep interval only bounds memory held by
// expired entries; it never changes observable behavior.
func New(sweepInterval time.Duration) *TTLCache {
	return &TTLCache{
		store:    gocache.New(gocache.NoExpiration, sweepInterval),
		keyLocks: make(map[string]*sync.Mutex),
	}
}

// Get returns the cached value for key, or absent when the key was never set
// or its window has elapsed.
func (c *TTLCache) Get(key Key) (interface{}, bool) {
	v, found := c.store.Get(key.String())
	c.recordLookup(found)
	return v, found
}

// Set stores or overwrites the value for key, resetting its window to now.
func (c *TTLCache) Set(key Key, value interface{}, ttl time.Duration) {
	c.store.Set(key.String(), value, ttl)
}

// Delete removes the entry for key.
func (c *TTLCache) Delete(key Key) {
	c.store.Delete(key.String())
}

// DeleteSport removes every entry for the given sport across categories.
func (c *TTLCache) DeleteSport(sport string) {
	match := ":" + sport + ":"
	for k := range c.store.Items() {
		if strings.Contains(k, match) {
			c.store.Delete(k)
		}
	}
}

// Fetch returns the cached value for key when the window is still open, and
// otherwise invokes compute, stores the result with the given TTL, and
// returns it. Calls for the same key are serialized, so a burst of misses
// runs compute exactly once.
func (c *TTLCache) Fetch(key Key, ttl time.Duration, compute func() (interface{}, error)) (interface{}, error) {
	if v, found := c.Get(key); found {
		return v, nil
	}

	lock := c.lockFor(key.String())
	lock.Lock()
	defer lock.Unlock()

	// Another caller may have populated the entry while we waited.
	if v, found := c.Get(key); found {
		return v, nil
	}

	v, err := compute()
	if err != nil {
		return nil, err
	}
	c.Set(key, v, ttl)
	return v, nil
}

// Flush drops every entry and resets statistics.
func (c *TTLCache) Flush() {
	c.store.Flush()
	c.statsMu.Lock()
	c.hitCount = 0
	c.missCount = 0
	c.statsMu.Unlock()
}

// ItemCount returns the number of entries held, including expired entries
// not yet swept.
func (c *TTLCache) ItemCount() int {
	return c.store.ItemCount()
}

// Stats returns hit and miss counts and the hit ratio.
func (c *TTLCache) Stats() (hits, misses uint64, ratio float64) {
	c.statsMu.RLock()
	defer c.statsMu.RUnlock()

	hits = c.hitCount
	misses = c.missCount
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

func (c *TTLCache) lockFor(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.keyLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		c.keyLocks[key] = lock
	}
	return lock
}

func (c *TTLCache) recordLookup(hit bool) {
	c.statsMu.Lock()
	if hit {
		c.hitCount++
		metrics.CacheHitsTotal.Inc()
	} else {
		c.missCount++
		metrics.CacheMissesTotal.Inc()
	}
	hits, misses := c.hitCount, c.missCount
	c.statsMu.Unlock()

	if total := hits + misses; total > 0 {
		metrics.CacheHitRatio.Set(float64(hits) / float64(total))
	}
}
