package auth

import (
	"context"
	"time"
)

// DenyList - быстрый кеш отозванных jti поверх таблицы revoked_tokens.
// Реализация: cache.RedisDenyList.
type DenyList interface {
	Add(ctx context.Context, jti string, ttl time.Duration) error
	Contains(ctx context.Context, jti string) (bool, error)
}
