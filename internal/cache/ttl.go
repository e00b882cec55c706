package cache

import (
	"sync"
	"time"
)

// TTL is a small generic key->value cache with per-entry expiry. It backs the
// read-mostly caches in the engine (rate-limit tier cache, moderation rules
// cache). Reads take the read lock; expired entries are dropped lazily on
// read and in bulk by Purge.
//
// Staleness up to the TTL is an accepted tradeoff; there is no event-driven
// invalidation.
type TTL[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]ttlEntry[V]
	ttl     time.Duration
	now     func() time.Time
}

type ttlEntry[V any] struct {
	value   V
	expires time.Time
}

// NewTTL creates a TTL cache whose entries live for d.
func NewTTL[K comparable, V any](d time.Duration) *TTL[K, V] {
	return &TTL[K, V]{
		entries: make(map[K]ttlEntry[V]),
		ttl:     d,
		now:     time.Now,
	}
}

// Get returns the cached value for key if present and unexpired.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(entry.expires) {
		c.mu.Lock()
		// Re-check under the write lock: another goroutine may have refreshed it.
		if cur, still := c.entries[key]; still && c.now().After(cur.expires) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set stores value under key with the cache's TTL.
func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	c.entries[key] = ttlEntry[V]{value: value, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete removes key from the cache.
func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Purge removes all expired entries. Callers that keep a long-lived cache
// under churn should run this periodically; Get already drops expired entries
// it touches.
func (c *TTL[K, V]) Purge() {
	now := c.now()
	c.mu.Lock()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Len returns the number of stored entries, including not-yet-purged expired ones.
func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
