package usercache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedis(client, time.Hour, nil), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, ok := cache.Get(ctx, "U1")
	assert.False(t, ok)

	cache.Set(ctx, "U1", "Jun Park")
	name, ok := cache.Get(ctx, "U1")
	require.True(t, ok)
	assert.Equal(t, "Jun Park", name)
}

func TestRedisCacheExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, "U1", "Jun Park")
	mr.FastForward(2 * time.Hour)

	_, ok := cache.Get(ctx, "U1")
	assert.False(t, ok)
}

func TestRedisCacheBackendDownIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cache := NewRedis(client, time.Hour, nil)

	mr.Close()
	_, ok := cache.Get(context.Background(), "U1")
	assert.False(t, ok)
	cache.Set(context.Background(), "U1", "Jun Park")
}
