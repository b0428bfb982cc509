package view

import (
	"sync"
	"time"
)

type cacheItem[V any] struct {
	val       V
	expiresAt time.Time
}

// TTLCache is an in-memory cache with per-entry expiry. Safe for concurrent use.
type TTLCache[V any] struct {
	mu    sync.RWMutex
	items map[string]cacheItem[V]
	ttl   time.Duration
	now   func() time.Time
}

func NewTTLCache[V any](ttl time.Duration) *TTLCache[V] {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TTLCache[V]{items: make(map[string]cacheItem[V]), ttl: ttl, now: time.Now}
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	var zero V
	if !ok {
		return zero, false
	}
	if c.now().After(it.expiresAt) {
		c.mu.Lock()
		if cur, ok2 := c.items[key]; ok2 && c.now().After(cur.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return it.val, true
}

func (c *TTLCache[V]) Set(key string, v V) {
	c.mu.Lock()
	c.items[key] = cacheItem[V]{val: v, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Purge drops every entry.
func (c *TTLCache[V]) Purge() {
	c.mu.Lock()
	c.items = make(map[string]cacheItem[V])
	c.mu.Unlock()
}

func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
