package repo

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/eino/schema"
	"github.com/jyotish-ai/server/internal/agent/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisConversationRepositoryRoundTrip(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	r := NewRedisConversationRepository(rdb, time.Hour)

	require.NoError(t, r.AddMessage(ctx, "a@b.c", schema.UserMessage("DOB: 1990-01-01")))
	require.NoError(t, r.AddMessage(ctx, "a@b.c", schema.ToolMessage(`{"chart_type":"D10"}`, "call-1")))
	require.NoError(t, r.AddMessage(ctx, "a@b.c", schema.AssistantMessage("Your career...", nil)))

	h, err := r.LoadHistory(ctx, "a@b.c")
	require.NoError(t, err)
	require.Len(t, h.Messages, 3)
	require.Equal(t, schema.User, h.Messages[0].Role)
	require.Equal(t, schema.Tool, h.Messages[1].Role)
	require.Equal(t, "call-1", h.Messages[1].ToolCallID)
	require.Equal(t, "Your career...", h.Messages[2].Content)

	n, err := r.GetMessageCount(ctx, "a@b.c")
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, time.Hour, mr.TTL(historyKey("a@b.c")))

	require.NoError(t, r.ClearHistory(ctx, "a@b.c"))
	h, err = r.LoadHistory(ctx, "a@b.c")
	require.NoError(t, err)
	require.Empty(t, h.Messages)
}

func TestRedisConversationRepositorySurfacesOutage(t *testing.T) {
	mr, rdb := newRedis(t)
	r := NewRedisConversationRepository(rdb, 0)
	mr.Close()

	err := r.AddMessage(context.Background(), "x", schema.UserMessage("hi"))
	require.Error(t, err)
}

func TestRedisChartCacheKeepsFirstWrite(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	c := NewRedisChartCache(rdb, "api_cache")

	_, found, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	require.False(t, found)

	first := model.CacheEntry{ID: "abc", DOB: "1990-01-01", TOB: "06:00", ChartType: model.ChartD10, APIResponse: json.RawMessage(`{"n":1}`)}
	second := first
	second.APIResponse = json.RawMessage(`{"n":2}`)
	require.NoError(t, c.Put(ctx, first))
	require.NoError(t, c.Put(ctx, second))

	got, found, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, found)
	require.JSONEq(t, `{"n":1}`, string(got.APIResponse))
	require.Equal(t, time.Duration(0), mr.TTL("api_cache:abc"))
	require.True(t, mr.Exists("api_cache:abc"))
}

func TestRedisChartCacheUnreadableEntry(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()
	c := NewRedisChartCache(rdb, "api_cache")

	require.NoError(t, mr.Set("api_cache:abc", "not json"))
	_, found, err := c.Get(ctx, "abc")
	require.ErrorIs(t, err, model.ErrCacheEntryUnreadable)
	require.False(t, found)

	require.NoError(t, c.Delete(ctx, "abc"))
	require.False(t, mr.Exists("api_cache:abc"))
	require.NoError(t, c.Delete(ctx, "abc"))

	entry := model.CacheEntry{ID: "abc", ChartType: model.ChartD10, APIResponse: json.RawMessage(`{"n":1}`)}
	require.NoError(t, c.Put(ctx, entry))
	got, found, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, found)
	require.JSONEq(t, `{"n":1}`, string(got.APIResponse))
}

func TestRedisAppConfigPassword(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()
	s := NewRedisAppConfig(rdb)

	_, found, err := s.GetPassword(ctx)
	require.NoError(t, err)
	require.False(t, found)

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.SetPassword(ctx, model.PasswordRecord{Value: "deadbeef", Algo: "sha256", UpdatedAt: now}))
	require.NoError(t, s.SetPassword(ctx, model.PasswordRecord{Value: "cafe", Algo: "sha256", UpdatedAt: now}))

	rec, found, err := s.GetPassword(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "cafe", rec.Value)
	require.True(t, now.Equal(rec.UpdatedAt))
}

func TestMemoryChartCacheInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryChartCache()
	require.NoError(t, c.Put(ctx, model.CacheEntry{ID: "x", TOB: "first"}))
	require.NoError(t, c.Put(ctx, model.CacheEntry{ID: "x", TOB: "second"}))

	e, ok, err := c.Get(ctx, "x")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "first", e.TOB)
	require.Equal(t, 1, c.Len())
}
