package utils

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cppla/caltrack/metrics"
)

const defaultCacheTTL = 10 * time.Minute

// RedisCache stores JSON documents in redis. A nil client turns every call into a miss.
type RedisCache struct {
	rc *redis.Client
}

// NewRedisCache wraps rc. The client stays owned by the caller.
func NewRedisCache(rc *redis.Client) *RedisCache {
	return &RedisCache{rc: rc}
}

// GetJSON decodes the cached value for key into dst and reports whether it was found.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dst interface{}) bool {
	if c == nil || c.rc == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			Logger.Debug("cache get failed", zap.String("key", key), zap.Error(err))
		}
		metrics.RecordCacheLookup(false)
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		Logger.Warn("cache entry undecodable", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheLookup(false)
		return false
	}
	metrics.RecordCacheLookup(true)
	return true
}

// SetJSON marshals v and stores it under key.
func (c *RedisCache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if c == nil || c.rc == nil {
		return
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.rc.Set(ctx, key, b, ttl).Err(); err != nil {
		Logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateByPrefix deletes keys that match the given prefix using SCAN.
func (c *RedisCache) InvalidateByPrefix(ctx context.Context, prefix string) {
	if c == nil || c.rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var cursor uint64
	for i := 0; i < 10; i++ { // bounded rounds
		keys, cur, err := c.rc.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			Logger.Warn("cache invalidate failed", zap.String("prefix", prefix), zap.Error(err))
			return
		}
		cursor = cur
		if len(keys) > 0 {
			pipe := c.rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			_, _ = pipe.Exec(ctx)
		}
		if cursor == 0 {
			return
		}
	}
}
