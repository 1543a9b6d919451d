package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/BearBump/FreightDesk/internal/cache"
)

type driverView struct {
	ID     string  `json:"id"`
	Rating float64 `json:"rating"`
}

func TestRedisCache_GetSetDel(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	ctx := context.Background()

	key := cache.Key("A", "driver", "d-1")
	require.Equal(t, "freightdesk:A:driver:d-1", key)

	require.NoError(t, cache.SetJSON(ctx, c, key, driverView{ID: "d-1", Rating: 4.67}, time.Minute))
	got, ok, err := cache.GetJSON[driverView](ctx, c, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 4.67, got.Rating)

	require.NoError(t, c.Del(ctx, key))
	_, ok, err = c.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCache_TTL(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	mr.FastForward(2 * time.Minute)
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisCache_CorruptEntryIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("{not json"), time.Minute))
	_, ok, err := cache.GetJSON[driverView](ctx, c, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRateLimiter_AllowPerTenant(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	rl := NewRateLimiter(c.Client(), 2, time.Minute)
	fixed := time.Date(2026, 1, 1, 12, 0, 30, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	ctx := context.Background()
	ok, n, err := rl.Allow(ctx, "A")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), n)

	ok, n, _ = rl.Allow(ctx, "A")
	require.True(t, ok)
	require.Equal(t, int64(2), n)

	ok, n, _ = rl.Allow(ctx, "A")
	require.False(t, ok)
	require.Equal(t, int64(3), n)

	// another tenant has its own budget
	ok, n, _ = rl.Allow(ctx, "B")
	require.True(t, ok)
	require.Equal(t, int64(1), n)

	// next window starts fresh
	fixed = fixed.Add(time.Minute)
	ok, n, _ = rl.Allow(ctx, "A")
	require.True(t, ok)
	require.Equal(t, int64(1), n)
}
