package content

import (
	"context"
	"slices"
	"time"

	"github.com/umnpray/umnpray/internal/cache"
	"github.com/umnpray/umnpray/internal/models"
)

const allKey = "all"

// Cached keeps the full listing of an upstream store for a TTL
type Cached struct {
	upstream Store
	cache    *cache.Cache[[]models.Space]
}

// NewCached wraps upstream with a TTL cache
func NewCached(upstream Store, ttl time.Duration) *Cached {
	return &Cached{upstream: upstream, cache: cache.New[[]models.Space](ttl)}
}

// All returns the cached listing, fetching it on a miss
func (c *Cached) All(ctx context.Context) ([]models.Space, error) {
	if spaces, ok := c.cache.Get(allKey); ok {
		return slices.Clone(spaces), nil
	}

	spaces, err := c.upstream.All(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Set(allKey, spaces)
	return slices.Clone(spaces), nil
}

// Get resolves against the cached listing
func (c *Cached) Get(ctx context.Context, key string) (models.Space, error) {
	spaces, err := c.All(ctx)
	if err != nil {
		return models.Space{}, err
	}
	return find(spaces, key)
}

// Invalidate drops the cached listing so the next read refetches
func (c *Cached) Invalidate() {
	c.cache.Clear()
}

// Close stops the cache sweeper
func (c *Cached) Close() {
	c.cache.Close()
}
