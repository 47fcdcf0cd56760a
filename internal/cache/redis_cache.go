package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"stockbook/backend/internal/domain"
)

const dashboardKey = "stockbook:dashboard:v1"

type RedisDashboardCache struct {
	client *redis.Client
	key    string
}

func NewRedisDashboardCache(addr string, password string, db int) *RedisDashboardCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisDashboardCache{client: client, key: dashboardKey}
}

func (c *RedisDashboardCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisDashboardCache) Close() error {
	return c.client.Close()
}

func (c *RedisDashboardCache) Get(ctx context.Context) (*domain.Dashboard, bool, error) {
	val, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var dashboard domain.Dashboard
	if err := json.Unmarshal(val, &dashboard); err != nil {
		return nil, false, err
	}
	return &dashboard, true, nil
}

func (c *RedisDashboardCache) Set(ctx context.Context, value *domain.Dashboard, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, payload, ttl).Err()
}

func (c *RedisDashboardCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
