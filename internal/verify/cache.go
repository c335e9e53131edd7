package verify

import (
	"sync"
	"time"
)

// Cache memoizes check results per normalized identifier so repeated
// verification runs do not hammer external resolvers. Entries expire after
// a fixed duration; eviction is explicit, not incidental process memory.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	result   CheckResult
	storedAt time.Time
}

// NewCache creates a cache with the given entry lifetime. A zero ttl
// disables expiry.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached result for key, expiring it on access when stale.
func (c *Cache) Get(key string) (CheckResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return CheckResult{}, false
	}

	if c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return CheckResult{}, false
	}

	return entry.result, true
}

// Put stores a result under key.
func (c *Cache) Put(key string, result CheckResult) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{result: result, storedAt: c.now()}
	c.mu.Unlock()
}

// Prune drops every expired entry and returns how many were removed.
func (c *Cache) Prune() int {
	if c.ttl <= 0 {
		return 0
	}

	cutoff := c.now().Add(-c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if entry.storedAt.Before(cutoff) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the current entry count, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
