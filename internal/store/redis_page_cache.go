package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"mybooks/internal/models"
)

//go:generate mockgen -destination=../../mocks/redis_kv.go -package=mocks mybooks/internal/store KV

// KV is the subset of redis.Cmdable the page cache uses.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisPageCache stores catalog pages in Redis with a TTL.
type RedisPageCache struct {
	kv     KV
	close  func() error
	prefix string
	ttl    time.Duration
}

// NewRedisPageCache initializes a Redis-backed PageCache.
func NewRedisPageCache(addr, prefix string, ttl time.Duration) *RedisPageCache {
	client := redis.NewClient(&redis.Options{Addr: addr})
	c := NewRedisPageCacheWithKV(client, prefix, ttl)
	c.close = client.Close
	return c
}

// NewRedisPageCacheWithKV builds a cache on an existing client (tests, clusters).
func NewRedisPageCacheWithKV(kv KV, prefix string, ttl time.Duration) *RedisPageCache {
	return &RedisPageCache{kv: kv, prefix: prefix, ttl: ttl}
}

// Close closes the Redis client when the cache owns one.
func (s *RedisPageCache) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// SetPage writes the page to Redis.
func (s *RedisPageCache) SetPage(ctx context.Context, key string, page models.BookPage) error {
	payload, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, s.prefix+key, payload, s.ttl).Err()
}

// GetPage reads the page from Redis.
func (s *RedisPageCache) GetPage(ctx context.Context, key string) (models.BookPage, bool, error) {
	val, err := s.kv.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.BookPage{}, false, nil
		}
		return models.BookPage{}, false, err
	}

	var page models.BookPage
	if err := json.Unmarshal(val, &page); err != nil {
		return models.BookPage{}, false, err
	}
	return page, true, nil
}
