// README: Redis read-through cache for the active rate card.
package ratecard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const activeCardKey = "ratecard:active"

type Cache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCache(redis *redis.Client, ttl time.Duration) *Cache {
	return &Cache{redis: redis, ttl: ttl}
}

// GetActive returns the cached card and whether there was a hit. Cache
// malfunction is reported as a miss plus the error; callers fall back to
// the store.
func (c *Cache) GetActive(ctx context.Context) (*RateCard, bool, error) {
	val, err := c.redis.Get(ctx, activeCardKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var card RateCard
	if err := json.Unmarshal(val, &card); err != nil {
		return nil, false, err
	}
	return &card, true, nil
}

func (c *Cache) SetActive(ctx context.Context, card *RateCard) error {
	val, err := json.Marshal(card)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, activeCardKey, val, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context) error {
	return c.redis.Del(ctx, activeCardKey).Err()
}
