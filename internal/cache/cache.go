// Package cache provides a generic TTL cache
package cache

import (
	"sync"
	"time"
)

// item wraps a cached value with its expiration time
type item[T any] struct {
	value     T
	expiresAt time.Time
}

// Cache is a generic thread-safe cache with TTL expiration.
// Expired items are swept in the background and reported to OnEvict.
type Cache[T any] struct {
	items   map[string]item[T]
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	onEvict func(key string, value T)
	stop    chan struct{}
	once    sync.Once
}

// Option configures a Cache
type Option[T any] func(*Cache[T])

// WithEvictHook is called for every item removed by expiry or Delete
func WithEvictHook[T any](fn func(key string, value T)) Option[T] {
	return func(c *Cache[T]) {
		c.onEvict = fn
	}
}

// WithClock overrides time.Now, for tests
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *Cache[T]) {
		c.now = now
	}
}

// New creates a cache with the specified TTL
func New[T any](ttl time.Duration, opts ...Option[T]) *Cache[T] {
	c := &Cache[T]{
		items: make(map[string]item[T]),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.cleanup()
	return c
}

// Get retrieves a value, returning (value, true) if found and not expired
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, exists := c.items[key]
	if !exists || c.now().After(it.expiresAt) {
		var zero T
		return zero, false
	}
	return it.value, true
}

// Touch returns the value and pushes its expiry a full TTL forward
func (c *Cache[T]) Touch(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, exists := c.items[key]
	if !exists || c.now().After(it.expiresAt) {
		var zero T
		return zero, false
	}
	it.expiresAt = c.now().Add(c.ttl)
	c.items[key] = it
	return it.value, true
}

// Set stores a value with the cache's TTL
func (c *Cache[T]) Set(key string, value T) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with an explicit TTL
func (c *Cache[T]) SetWithTTL(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item[T]{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// Delete removes a key from the cache
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	it, exists := c.items[key]
	delete(c.items, key)
	c.mu.Unlock()

	if exists && c.onEvict != nil {
		c.onEvict(key, it.value)
	}
}

// Clear removes all items from the cache without calling the evict hook
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]item[T])
}

// Size returns the number of items (including expired)
func (c *Cache[T]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the background cleanup goroutine
func (c *Cache[T]) Close() {
	c.once.Do(func() { close(c.stop) })
}

// cleanup runs periodically to remove expired items
func (c *Cache[T]) cleanup() {
	interval := c.ttl
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.RemoveExpired()
		case <-c.stop:
			return
		}
	}
}

// RemoveExpired drops expired items and reports how many were removed
func (c *Cache[T]) RemoveExpired() int {
	now := c.now()

	c.mu.Lock()
	var evicted []string
	var values []T
	for key, it := range c.items {
		if now.After(it.expiresAt) {
			evicted = append(evicted, key)
			values = append(values, it.value)
			delete(c.items, key)
		}
	}
	c.mu.Unlock()

	if c.onEvict != nil {
		for i, key := range evicted {
			c.onEvict(key, values[i])
		}
	}
	return len(evicted)
}
