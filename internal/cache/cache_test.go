package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, ttl, "test:"), mr
}

func TestCacheRoundTripAndExpiry(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	id := uuid.New()

	var got payload
	hit, err := c.GetJSON(ctx, KeyProduct(id), &got)
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, c.SetJSON(ctx, KeyProduct(id), payload{Name: "widget", Price: "12.50"}))
	require.True(t, mr.Exists("test:"+KeyProduct(id)))

	hit, err = c.GetJSON(ctx, KeyProduct(id), &got)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, "12.50", got.Price)

	mr.FastForward(2 * time.Minute)
	hit, err = c.GetJSON(ctx, KeyProduct(id), &got)
	require.NoError(t, err)
	require.False(t, hit)
}

func TestCacheDeleteByPrefix(t *testing.T) {
	c, mr := newTestCache(t, time.Minute)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, c.SetJSON(ctx, KeyTiers(uuid.New()), []int{i}))
	}
	require.NoError(t, c.SetJSON(ctx, KeyFreight("toys|100-999|CN|US"), payload{Name: "lane"}))

	n, err := c.DeleteByPrefix(ctx, PrefixTiers)
	require.NoError(t, err)
	require.EqualValues(t, 5, n)
	require.True(t, mr.Exists("test:"+KeyFreight("toys|100-999|CN|US")))
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()
	hit, err := c.GetJSON(ctx, "k", &payload{})
	require.NoError(t, err)
	require.False(t, hit)
	require.NoError(t, c.SetJSON(ctx, "k", payload{}))
	n, err := c.DeleteByPrefix(ctx, "k")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestKeys(t *testing.T) {
	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	require.Equal(t, "tariff:11111111-1111-1111-1111-111111111111:DE", KeyTariff(id, "de"))
	require.Equal(t, "rules:11111111-1111-1111-1111-111111111111:11111111-1111-1111-1111-111111111111:11111111-1111-1111-1111-111111111111", KeyRules(id, id, id))
}
