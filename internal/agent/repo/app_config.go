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

const passwordKey = "app_config:access_password"

// RedisAppConfig holds application documents such as the password override.
type RedisAppConfig struct {
	rdb redis.Cmdable
}

func NewRedisAppConfig(rdb redis.Cmdable) *RedisAppConfig {
	return &RedisAppConfig{rdb: rdb}
}

func (s *RedisAppConfig) GetPassword(ctx context.Context) (model.PasswordRecord, bool, error) {
	raw, err := s.rdb.Get(ctx, passwordKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.PasswordRecord{}, false, nil
	}
	if err != nil {
		return model.PasswordRecord{}, false, errx.WrapRedis(err)
	}
	var rec model.PasswordRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return model.PasswordRecord{}, false, fmt.Errorf("decode password record: %w", err)
	}
	return rec, rec.Value != "", nil
}

// SetPassword upserts the override document.
func (s *RedisAppConfig) SetPassword(ctx context.Context, rec model.PasswordRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode password record: %w", err)
	}
	if err := s.rdb.Set(ctx, passwordKey, raw, 0).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.AppConfigStore = (*RedisAppConfig)(nil)
