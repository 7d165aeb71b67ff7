package statistics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jHLuno/telfera/app/models"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	host := os.Getenv("CACHE_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("CACHE_PORT")
	if port == "" {
		port = "6379"
	}
	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port), DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() {
		client.Del(context.Background(), CacheKeyLeadStats)
		_ = client.Close()
	})
	return client
}

func TestCache_NilClientPassesThrough(t *testing.T) {
	calls := 0
	load := func() (*models.LeadStats, error) {
		calls++
		return &models.LeadStats{Total: 3}, nil
	}

	c := NewCache(nil)
	for i := 0; i < 2; i++ {
		stats, err := c.LeadStats(context.Background(), load)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.Total)
	}
	assert.Equal(t, 2, calls)
	assert.NoError(t, c.InvalidateLeads(context.Background()))

	var nilCache *Cache
	_, err := nilCache.LeadStats(context.Background(), load)
	assert.NoError(t, err)
}

func TestCache_LoaderErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	_, err := NewCache(nil).LeadStats(context.Background(), func() (*models.LeadStats, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestCache_CachesUntilInvalidated(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	c := NewCache(client)
	require.NoError(t, c.InvalidateLeads(ctx))

	calls := 0
	load := func() (*models.LeadStats, error) {
		calls++
		return &models.LeadStats{
			Total:    int64(calls),
			ByStatus: []models.StatusCount{{Status: models.LeadStatusNew, Count: int64(calls)}},
		}, nil
	}

	first, err := c.LeadStats(ctx, load)
	require.NoError(t, err)
	second, err := c.LeadStats(ctx, load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, models.LeadStatusNew, second.ByStatus[0].Status)

	require.NoError(t, c.InvalidateLeads(ctx))
	third, err := c.LeadStats(ctx, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(2), third.Total)
}
