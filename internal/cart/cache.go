package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// SummaryCache keeps per-user cart summaries in Redis so badge-style reads
// don't hit Postgres. Every cart mutation and every checkout invalidates
// the key. A nil cache disables caching entirely.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

func summaryKey(userID string) string { return fmt.Sprintf("cart:summary:%s", userID) }

func (c *SummaryCache) Get(ctx context.Context, userID string) (*Summary, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, summaryKey(userID)).Result()
	if err != nil {
		return nil, false
	}
	var s Summary
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, false
	}
	return &s, true
}

func (c *SummaryCache) Set(ctx context.Context, userID string, s Summary) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	// cache is best effort; a write failure just means a cold read later
	_ = c.client.Set(ctx, summaryKey(userID), data, c.ttl).Err()
}

func (c *SummaryCache) Invalidate(ctx context.Context, userID string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, summaryKey(userID)).Err()
}
