package services

import (
	"context"
	"strconv"
	"time"
)

const (
	cachePrefix        = "cache:entries:"
	cacheKeyEntryList  = cachePrefix + "list"
	defaultCacheTTL    = 10 * time.Minute
	cacheKeyDetailBase = cachePrefix + "detail:"
)

// Cache is the read-through store used for entry reads. utils.RedisCache satisfies it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst interface{}) bool
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration)
	InvalidateByPrefix(ctx context.Context, prefix string)
}

type noopCache struct{}

func (noopCache) GetJSON(context.Context, string, interface{}) bool           { return false }
func (noopCache) SetJSON(context.Context, string, interface{}, time.Duration) {}
func (noopCache) InvalidateByPrefix(context.Context, string)                  {}

func detailKey(entryID int64) string {
	return cacheKeyDetailBase + strconv.FormatInt(entryID, 10)
}
