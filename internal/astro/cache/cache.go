package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/jyotish-ai/server/internal/agent/model"
	logx "github.com/jyotish-ai/server/pkg/logger"
	"github.com/rs/zerolog"
)

// FetchFunc produces a fresh chart response on a cache miss.
type FetchFunc func(ctx context.Context) model.ChartResponse

// ID is the content address of a query: SHA-256 over the JSON encoding of its
// parameters with keys sorted.
func ID(q model.BirthQuery, ct model.ChartType) string {
	// encoding/json writes map keys in sorted order.
	payload := map[string]any{
		"dob":        q.Date.String(),
		"tob":        q.Time.String(),
		"lat":        q.Latitude,
		"lon":        q.Longitude,
		"chart_type": string(ct),
	}
	b, _ := json.Marshal(payload)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Cache is a read-through cache over a ChartCacheStore. It holds no locks:
// concurrent misses for one id may both fetch, and the store keeps the first
// write.
type Cache struct {
	store model.ChartCacheStore
	now   func() time.Time
	log   zerolog.Logger
}

func New(store model.ChartCacheStore) *Cache {
	return &Cache{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		log:   logx.Component("cache"),
	}
}

func (c *Cache) GetOrFetch(ctx context.Context, q model.BirthQuery, ct model.ChartType, fetch FetchFunc) model.ChartResponse {
	id := ID(q, ct)
	log := c.log.With().Str("cache_id", id).Str("chart_type", string(ct)).Logger()

	entry, found, err := c.store.Get(ctx, id)
	switch {
	case errors.Is(err, model.ErrCacheEntryUnreadable):
		c.evict(ctx, log, id, err)
	case err != nil:
		log.Warn().Err(err).Msg("cache lookup failed; fetching")
	case found:
		var resp model.ChartResponse
		err := json.Unmarshal(entry.APIResponse, &resp)
		if err == nil {
			log.Debug().Msg("cache hit")
			return resp
		}
		c.evict(ctx, log, id, err)
	}

	resp := fetch(ctx)
	if resp.IsError() || resp.IsEmpty() {
		return resp
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		log.Warn().Err(err).Msg("encode response for cache")
		return resp
	}
	err = c.store.Put(ctx, model.CacheEntry{
		ID:          id,
		DOB:         q.Date.String(),
		TOB:         q.Time.String(),
		Lat:         q.Latitude,
		Lon:         q.Longitude,
		ChartType:   ct,
		APIResponse: raw,
		CreatedAt:   c.now(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("cache write failed")
	} else {
		log.Debug().Msg("cache stored")
	}
	return resp
}

// evict drops an undecodable document so the next write can replace it;
// inserts never overwrite an existing id.
func (c *Cache) evict(ctx context.Context, log zerolog.Logger, id string, cause error) {
	log.Warn().Err(cause).Msg("cache entry unreadable; evicting")
	if err := c.store.Delete(ctx, id); err != nil {
		log.Warn().Err(err).Msg("cache evict failed")
	}
}
