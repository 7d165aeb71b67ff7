package statistics

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/jHLuno/telfera/app/models"
)

const (
	CacheKeyLeadStats = "statistics:leads:summary"
	CacheExpiration   = 5 * time.Minute
)

// Cache keeps the dashboard summary in Redis. A nil client turns every
// call into a pass-through to the loader.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client, ttl: CacheExpiration}
}

// LeadStats returns the cached summary or computes it with load and stores it.
// Redis problems are logged and never hide the freshly loaded value.
func (c *Cache) LeadStats(ctx context.Context, load func() (*models.LeadStats, error)) (*models.LeadStats, error) {
	if c == nil || c.client == nil {
		return load()
	}

	raw, err := c.client.Get(ctx, CacheKeyLeadStats).Bytes()
	if err == nil {
		var stats models.LeadStats
		if jerr := json.Unmarshal(raw, &stats); jerr == nil {
			return &stats, nil
		}
		log.Warnf("[Statistics] dropping unreadable cache entry %s", CacheKeyLeadStats)
	} else if !errors.Is(err, redis.Nil) {
		log.Warnf("[Statistics] cache read failed: %v", err)
	}

	stats, err := load()
	if err != nil {
		return nil, err
	}

	if payload, jerr := json.Marshal(stats); jerr == nil {
		if serr := c.client.Set(ctx, CacheKeyLeadStats, payload, c.ttl).Err(); serr != nil {
			log.Warnf("[Statistics] cache write failed: %v", serr)
		}
	}
	return stats, nil
}

// InvalidateLeads drops every cached view derived from leads.
func (c *Cache) InvalidateLeads(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, CacheKeyLeadStats).Err()
}
