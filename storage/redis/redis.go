package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "aowotoy:seen:"

// SeenCache remembers URLs already persisted so repeat runs can skip the
// store lookup. It is only a shortcut; the store stays authoritative, and
// callers scope keys per store (pipeline.ScopedCache).
type SeenCache struct {
	client     *redis.Client
	DefaultTTL time.Duration
}

func New(ctx context.Context, address string, db int, defaultTTL time.Duration) (*SeenCache, error) {
	const op = "storage.redis.New"

	rdb := redis.NewClient(&redis.Options{
		Addr: address,
		DB:   db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &SeenCache{client: rdb, DefaultTTL: defaultTTL}, nil
}

func (c *SeenCache) Seen(ctx context.Context, url string) (bool, error) {
	const op = "storage.redis.Seen"

	n, err := c.client.Exists(ctx, keyPrefix+url).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

func (c *SeenCache) MarkSeen(ctx context.Context, url string, id int64) error {
	const op = "storage.redis.MarkSeen"

	if err := c.client.Set(ctx, keyPrefix+url, id, c.DefaultTTL).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *SeenCache) Close() error {
	return c.client.Close()
}
