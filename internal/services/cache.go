package services

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

type cacheEntry struct {
	value   any
	stored  time.Time
	expires time.Time
}

// resultCache memoizes analysis results. Concurrent misses on one key share
// a single computation. reset drops every entry and discards results of
// computations that were in flight when it ran.
type resultCache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	generation uint64
	ttl        time.Duration
	maxEntries int
	group      singleflight.Group
	now        func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

func newResultCache(ttl time.Duration, maxEntries int) *resultCache {
	return &resultCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// do returns the cached value for key or computes it with fn. The boolean
// reports a cache hit.
func (c *resultCache) do(key string, fn func() (any, error)) (any, bool, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Before(e.expires) {
		c.mu.Unlock()
		c.hits.Add(1)
		return e.value, true, nil
	}
	generation := c.generation
	c.mu.Unlock()
	c.misses.Add(1)

	v, err, _ := c.group.Do(key, func() (any, error) {
		v, err := fn()
		if err != nil {
			return nil, err
		}
		c.store(key, v, generation)
		return v, nil
	})
	return v, false, err
}

func (c *resultCache) store(key string, v any, generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return
	}

	now := c.now()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evict(now)
	}
	c.entries[key] = cacheEntry{value: v, stored: now, expires: now.Add(c.ttl)}
}

// evict removes expired entries, or the oldest one when none expired.
// Caller holds mu.
func (c *resultCache) evict(now time.Time) {
	var oldestKey string
	var oldest time.Time
	removed := false
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
			removed = true
			continue
		}
		if oldestKey == "" || e.stored.Before(oldest) {
			oldestKey, oldest = k, e.stored
		}
	}
	if !removed && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *resultCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.generation++
}

func (c *resultCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
