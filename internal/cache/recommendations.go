package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"swapp/api/internal/utils"
)

const recommendationPrefix = "reco:"

// RecommendationCache keeps each user's last recommender result for a short while.
type RecommendationCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRecommendationCache(client *redis.Client, ttl time.Duration) *RecommendationCache {
	return &RecommendationCache{client: client, ttl: ttl}
}

func recommendationKey(userID utils.SixID) string {
	return recommendationPrefix + userID.String()
}

// Get returns the cached item ids; ok is false on a miss.
func (c *RecommendationCache) Get(ctx context.Context, userID utils.SixID) (ids []utils.SixID, ok bool, err error) {
	raw, err := c.client.Get(ctx, recommendationKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading recommendation cache: %w", err)
	}
	if err := json.Unmarshal(raw, &ids); err != nil {
		// A corrupt entry is treated as a miss and overwritten later.
		return nil, false, nil
	}
	return ids, true, nil
}

func (c *RecommendationCache) Set(ctx context.Context, userID utils.SixID, ids []utils.SixID) error {
	if c.ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, recommendationKey(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing recommendation cache: %w", err)
	}
	return nil
}

// InvalidateAll drops every entry; called after the models are retrained.
func (c *RecommendationCache) InvalidateAll(ctx context.Context) (int, error) {
	var cursor uint64
	removed := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, recommendationPrefix+"*", 200).Result()
		if err != nil {
			return removed, fmt.Errorf("scanning recommendation cache: %w", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("clearing recommendation cache: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}
