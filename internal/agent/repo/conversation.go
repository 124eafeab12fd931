package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/jyotish-ai/server/internal/agent/model"
	errx "github.com/jyotish-ai/server/internal/core/error"
	logx "github.com/jyotish-ai/server/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const chatHistoryPrefix = "chat_history"

// storedMessage is the list element written for every message.
type storedMessage struct {
	Message   *schema.Message `json:"message"`
	CreatedAt time.Time       `json:"created_at"`
}

// RedisConversationRepository keeps each session's log in one Redis list.
type RedisConversationRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
	now func() time.Time
}

// NewRedisConversationRepository builds the repository; ttl <= 0 keeps logs forever.
func NewRedisConversationRepository(rdb redis.Cmdable, ttl time.Duration) *RedisConversationRepository {
	return &RedisConversationRepository{rdb: rdb, ttl: ttl, now: time.Now}
}

func historyKey(sessionID string) string {
	return fmt.Sprintf("%s:%s:messages", chatHistoryPrefix, sessionID)
}

func (r *RedisConversationRepository) AddMessage(ctx context.Context, sessionID string, message *schema.Message) error {
	b, err := json.Marshal(storedMessage{Message: message, CreatedAt: r.now().UTC()})
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to marshal message")
		return fmt.Errorf("marshal message: %w", err)
	}
	key := historyKey(sessionID)

	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to append message")
		return errx.WrapRedis(err)
	}
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("expire not applied to history key")
		}
	}
	return nil
}

func (r *RedisConversationRepository) LoadHistory(ctx context.Context, sessionID string) (*model.ConversationHistory, error) {
	key := historyKey(sessionID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("key", key).Msg("failed to load history")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]*schema.Message, 0, len(rows))
	for i, row := range rows {
		var stored storedMessage
		if err := json.Unmarshal([]byte(row), &stored); err != nil || stored.Message == nil {
			logx.Warn().Err(err).Str("session_id", sessionID).Int("index", i).Msg("skipping unreadable history entry")
			continue
		}
		msgs = append(msgs, stored.Message)
	}
	return &model.ConversationHistory{ConversationID: sessionID, Messages: msgs}, nil
}

func (r *RedisConversationRepository) ClearHistory(ctx context.Context, sessionID string) error {
	key := historyKey(sessionID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete history")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) GetMessageCount(ctx context.Context, sessionID string) (int, error) {
	n, err := r.rdb.LLen(ctx, historyKey(sessionID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

var _ model.ConversationRepository = (*RedisConversationRepository)(nil)
