// Package cache implements an in-process TTL cache with LRU eviction, used
// to serve read-model queries without hitting Postgres on every request.
package cache

import (
	"container/list"
	"regexp"
	"sync"
	"time"
)

// entry is a single cached value plus its expiration time and position in
// the LRU list.
type entry struct {
	key       string
	value     any
	expiresAt time.Time
	elem      *list.Element
}

// Cache is a single-mutex, TTL-bounded, size-bounded key/value store. A
// single lock guards both the lookup map and the LRU ordering list, mirroring
// the source's single asyncio.Lock guarding its dict plus access-order list.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	order      *list.List
	defaultTTL time.Duration
	maxSize    int
	now        func() time.Time
}

// New returns a Cache with the given default TTL and maximum entry count.
func New(defaultTTL time.Duration, maxSize int) *Cache {
	return &Cache{
		entries:    make(map[string]*entry),
		order:      list.New(),
		defaultTTL: defaultTTL,
		maxSize:    maxSize,
		now:        time.Now,
	}
}

// Get returns the cached value for key, or (nil, false) if absent or
// expired. A hit refreshes the key's LRU position.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	if c.now().After(e.expiresAt) {
		c.removeLocked(key)
		return nil, false
	}

	c.order.MoveToBack(e.elem)
	return e.value, true
}

// Set stores value under key with the given ttl. A ttl of zero uses the
// cache's default. Setting an existing key refreshes its value, expiry, and
// LRU position without counting against capacity twice.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	if existing, ok := c.entries[key]; ok {
		existing.value = value
		existing.expiresAt = c.now().Add(ttl)
		c.order.MoveToBack(existing.elem)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictLRULocked()
	}

	elem := c.order.PushBack(key)
	c.entries[key] = &entry{
		key:       key,
		value:     value,
		expiresAt: c.now().Add(ttl),
		elem:      elem,
	}
}

// Delete removes key from the cache, if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// InvalidatePattern deletes every key matching the given regular expression.
// Callers build the pattern once and reuse it; Cache never compiles a
// pattern itself, unlike the source's per-call re.compile.
func (c *Cache) InvalidatePattern(pattern *regexp.Regexp) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if pattern.MatchString(key) {
			c.removeLocked(key)
		}
	}
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.order.Init()
}

// CleanupExpired removes every entry whose TTL has passed. Intended to be
// run periodically by a background goroutine rather than relying solely on
// lazy expiration at Get time.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			c.removeLocked(key)
			removed++
		}
	}
	return removed
}

// Len returns the current number of entries, including any not yet lazily
// expired.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) removeLocked(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	c.order.Remove(e.elem)
	delete(c.entries, key)
}

func (c *Cache) evictLRULocked() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key := front.Value.(string)
	c.removeLocked(key)
}
