package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const denyListPrefix = "revoked:"

// RedisDenyList хранит отозванные jti с TTL до истечения токена
type RedisDenyList struct {
	client *redis.Client
}

func NewRedisDenyList(client *redis.Client) *RedisDenyList {
	return &RedisDenyList{client: client}
}

func (d *RedisDenyList) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, denyListPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis set revoked: %w", err)
	}
	return nil
}

func (d *RedisDenyList) Contains(ctx context.Context, jti string) (bool, error) {
	err := d.client.Get(ctx, denyListPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get revoked: %w", err)
	}
	return true, nil
}
