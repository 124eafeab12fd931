package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jyotish-ai/server/internal/agent/model"
	errx "github.com/jyotish-ai/server/internal/core/error"
	"github.com/redis/go-redis/v9"
)

// RedisChartCache stores one JSON document per cache id with no expiry.
type RedisChartCache struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisChartCache(rdb redis.Cmdable, prefix string) *RedisChartCache {
	if prefix == "" {
		prefix = "api_cache"
	}
	return &RedisChartCache{rdb: rdb, prefix: prefix}
}

func (c *RedisChartCache) key(id string) string {
	return c.prefix + ":" + id
}

func (c *RedisChartCache) Get(ctx context.Context, id string) (model.CacheEntry, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.CacheEntry{}, false, nil
	}
	if err != nil {
		return model.CacheEntry{}, false, errx.WrapRedis(err)
	}
	var entry model.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return model.CacheEntry{}, false, fmt.Errorf("%w: %s: %v", model.ErrCacheEntryUnreadable, id, err)
	}
	return entry, true, nil
}

// Put uses SET NX so racing writers for one id keep the first document.
func (c *RedisChartCache) Put(ctx context.Context, entry model.CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", entry.ID, err)
	}
	if err := c.rdb.SetNX(ctx, c.key(entry.ID), raw, 0).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

func (c *RedisChartCache) Delete(ctx context.Context, id string) error {
	if err := c.rdb.Del(ctx, c.key(id)).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.ChartCacheStore = (*RedisChartCache)(nil)
