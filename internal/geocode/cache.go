package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/umnpray/umnpray/internal/cache"
	"github.com/umnpray/umnpray/internal/models"
)

// MemoryCache keeps lookups in process
type MemoryCache struct {
	items *cache.Cache[models.Coordinates]
}

// NewMemoryCache creates an in-process cache with the given TTL
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{items: cache.New[models.Coordinates](ttl)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (models.Coordinates, bool, error) {
	c, ok := m.items.Get(key)
	return c, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, c models.Coordinates) error {
	m.items.Set(key, c)
	return nil
}

// Close stops the background sweeper
func (m *MemoryCache) Close() { m.items.Close() }

const redisKeyPrefix = "umnpray:geocode:"

// RedisCache shares lookups between instances
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache wraps an open redis client
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// OpenRedis opens a client for addr; returns nil when addr is empty
func OpenRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

func (r *RedisCache) Get(ctx context.Context, key string) (models.Coordinates, bool, error) {
	raw, err := r.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Coordinates{}, false, nil
	}
	if err != nil {
		return models.Coordinates{}, false, fmt.Errorf("redis get: %w", err)
	}

	var c models.Coordinates
	if err := json.Unmarshal(raw, &c); err != nil {
		return models.Coordinates{}, false, fmt.Errorf("decoding cached coordinates: %w", err)
	}
	return c, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, c models.Coordinates) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, redisKeyPrefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
