package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCache(rdb, time.Minute), mr
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	var got map[string]int
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "k", map[string]int{"a": 1}))
	found, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, got["a"])

	mr.FastForward(2 * time.Minute)
	found, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheVersionBump(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	v, err := c.Version(ctx, "catalog")
	require.NoError(t, err)
	assert.Equal(t, "0", v)

	v, err = c.Bump(ctx, "catalog")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	v, err = c.Version(ctx, "catalog")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestNilCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	var c *Cache

	require.NoError(t, c.Set(ctx, "k", 1))
	found, err := c.Get(ctx, "k", new(int))
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, c.Delete(ctx, "k"))

	v, err := NewCache(nil, time.Minute).Bump(ctx, "catalog")
	require.NoError(t, err)
	assert.Equal(t, "0", v)
}
