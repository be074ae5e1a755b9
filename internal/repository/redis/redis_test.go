package redis

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/cfg"
	"github.com/DRSN-tech/shop-assistant/internal/repository/redis/converter"
	"github.com/DRSN-tech/shop-assistant/pkg/clients"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	r "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *clients.RedisClient) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := &clients.RedisClient{Client: r.NewClient(&r.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = client.Client.Close() })

	return mr, client
}

func testRedisCfg() *cfg.RedisCfg {
	return &cfg.RedisCfg{RecommendationTTL: time.Minute, CartTTL: time.Hour}
}

func TestCacheRepoRoundTrip(t *testing.T) {
	mr, client := newTestClient(t)
	repo := NewCacheRepo(client, converter.NewRecommendationsConverter(), testRedisCfg(), logger.NewNopLogger())
	ctx := context.Background()

	ids, err := repo.GetRecommendations(ctx, "rec:v1:1:2")
	require.NoError(t, err)
	assert.Nil(t, ids)

	require.NoError(t, repo.SetRecommendations(ctx, "rec:v1:1:2", []string{"2", "3"}))

	ids, err = repo.GetRecommendations(ctx, "rec:v1:1:2")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, ids)
	assert.Equal(t, time.Minute, mr.TTL("rec:v1:1:2"))

	mr.FastForward(2 * time.Minute)
	ids, err = repo.GetRecommendations(ctx, "rec:v1:1:2")
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestCacheRepoEmptyResultIsHit(t *testing.T) {
	_, client := newTestClient(t)
	repo := NewCacheRepo(client, converter.NewRecommendationsConverter(), testRedisCfg(), logger.NewNopLogger())
	ctx := context.Background()

	require.NoError(t, repo.SetRecommendations(ctx, "rec:v1:9:3", nil))

	ids, err := repo.GetRecommendations(ctx, "rec:v1:9:3")
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestCacheRepoDropsCorruptedEntry(t *testing.T) {
	mr, client := newTestClient(t)
	repo := NewCacheRepo(client, converter.NewRecommendationsConverter(), testRedisCfg(), logger.NewNopLogger())

	require.NoError(t, mr.Set("rec:v1:1:2", "{not json"))

	ids, err := repo.GetRecommendations(context.Background(), "rec:v1:1:2")
	require.NoError(t, err)
	assert.Nil(t, ids)
	assert.False(t, mr.Exists("rec:v1:1:2"))
}

func TestCacheRepoReportsRedisFailure(t *testing.T) {
	mr, client := newTestClient(t)
	repo := NewCacheRepo(client, converter.NewRecommendationsConverter(), testRedisCfg(), logger.NewNopLogger())
	mr.Close()

	_, err := repo.GetRecommendations(context.Background(), "rec:v1:1:2")
	assert.Error(t, err)
}

func TestCartRepo(t *testing.T) {
	mr, client := newTestClient(t)
	repo := NewCartRepo(client, testRedisCfg(), logger.NewNopLogger())
	ctx := context.Background()

	qty, err := repo.AddItem(ctx, "ann", "1", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), qty)

	qty, err = repo.AddItem(ctx, "ann", "1", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), qty)

	_, err = repo.AddItem(ctx, "ann", "2", 1)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL("cart:ann"))

	mr.HSet("cart:ann", "junk", "abc")

	items, err := repo.GetItems(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"1": 5, "2": 1}, items)

	require.NoError(t, repo.RemoveItem(ctx, "ann", "1"))
	items, err = repo.GetItems(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"2": 1}, items)

	require.NoError(t, repo.Clear(ctx, "ann"))
	items, err = repo.GetItems(ctx, "ann")
	require.NoError(t, err)
	assert.Empty(t, items)
}
