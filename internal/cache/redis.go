package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"skinvault-api/internal/model"
	"skinvault-api/pkg/clock"
)

// keyTTL garbage-collects whole item hashes that nothing refreshes
// anymore. Logical validity is still decided per query from FetchedAt.
const keyTTL = 24 * time.Hour

// RedisPriceCache is a Redis-backed PriceCache. Each item maps to one
// hash keyed by marketplace, so writes to different (item, marketplace)
// pairs never conflict.
type RedisPriceCache struct {
	client    *redis.Client
	keyPrefix string
	clock     clock.Clock
}

// NewRedisPriceCache creates a Redis-backed price cache.
func NewRedisPriceCache(client *redis.Client, keyPrefix string, clk clock.Clock) *RedisPriceCache {
	if keyPrefix == "" {
		keyPrefix = "skinvault:prices"
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &RedisPriceCache{client: client, keyPrefix: keyPrefix, clock: clk}
}

func (c *RedisPriceCache) key(itemName string) string {
	return c.keyPrefix + ":" + itemName
}

// Put overwrites the hash field for the quote's marketplace.
func (c *RedisPriceCache) Put(ctx context.Context, itemName string, quote model.PriceQuote) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}

	key := c.key(itemName)
	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, string(quote.Marketplace), data)
	pipe.Expire(ctx, key, keyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store quote: %w", err)
	}
	return nil
}

// GetValid reads the item's hash and filters entries by age. The TTL
// stays a per-query parameter; Redis key expiry is only housekeeping.
func (c *RedisPriceCache) GetValid(ctx context.Context, itemName string, ttl time.Duration) ([]model.PriceQuote, error) {
	fields, err := c.client.HGetAll(ctx, c.key(itemName)).Result()
	if err != nil {
		return nil, fmt.Errorf("read quotes: %w", err)
	}

	now := c.clock.Now()
	out := make([]model.PriceQuote, 0, len(fields))
	for _, m := range model.Marketplaces() {
		raw, ok := fields[string(m)]
		if !ok {
			continue
		}
		var q model.PriceQuote
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			continue
		}
		if now.Sub(q.FetchedAt) <= ttl {
			out = append(out, q)
		}
	}
	return out, nil
}

var _ PriceCache = (*RedisPriceCache)(nil)
