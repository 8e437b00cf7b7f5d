package checkpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"funnel/internal/constants"
)

// RedisStore persists the watermark so a restart resumes the lateness
// horizon instead of rewinding it. Keyed per consumer group so parallel
// pipelines do not collide.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, groupID string) *RedisStore {
	return &RedisStore{
		client: client,
		key:    constants.CheckpointKeyPrefix + groupID,
	}
}

func (s *RedisStore) Load(ctx context.Context) (time.Time, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load watermark checkpoint: %w", err)
	}

	wm, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt watermark checkpoint %q: %w", val, err)
	}
	return wm, nil
}

func (s *RedisStore) Save(ctx context.Context, watermark time.Time) error {
	if err := s.client.Set(ctx, s.key, watermark.Format(time.RFC3339Nano), 0).Err(); err != nil {
		return fmt.Errorf("failed to save watermark checkpoint: %w", err)
	}
	return nil
}
