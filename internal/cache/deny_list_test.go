package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDenyList(t *testing.T) (*RedisDenyList, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisDenyList(client), mr
}

func TestRedisDenyList_AddContains(t *testing.T) {
	ctx := context.Background()
	list, _ := newTestDenyList(t)

	ok, err := list.Contains(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, list.Add(ctx, "jti-1", time.Minute))
	// Повторный отзыв не ошибка
	require.NoError(t, list.Add(ctx, "jti-1", time.Minute))

	ok, err = list.Contains(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisDenyList_ExpiresWithToken(t *testing.T) {
	ctx := context.Background()
	list, mr := newTestDenyList(t)

	require.NoError(t, list.Add(ctx, "jti-2", time.Minute))
	mr.FastForward(2 * time.Minute)

	ok, err := list.Contains(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, ok)

	// Просроченный токен не пишем вовсе
	require.NoError(t, list.Add(ctx, "jti-3", 0))
	assert.False(t, mr.Exists(denyListPrefix+"jti-3"))
}
