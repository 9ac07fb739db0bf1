package cache

import (
	"context"
	"sync"
	"time"

	"skinvault-api/internal/model"
	"skinvault-api/pkg/clock"
)

// MemoryPriceCache is an in-memory implementation of PriceCache.
// Use this for development/testing or single-instance deployments.
type MemoryPriceCache struct {
	mu      sync.RWMutex
	entries map[string]map[model.Marketplace]model.PriceQuote
	clock   clock.Clock
}

// NewMemoryPriceCache creates an in-memory price cache. A nil clock
// defaults to the real one.
func NewMemoryPriceCache(clk clock.Clock) *MemoryPriceCache {
	if clk == nil {
		clk = clock.Real()
	}
	return &MemoryPriceCache{
		entries: make(map[string]map[model.Marketplace]model.PriceQuote),
		clock:   clk,
	}
}

// Put overwrites the entry for (itemName, quote.Marketplace).
func (c *MemoryPriceCache) Put(ctx context.Context, itemName string, quote model.PriceQuote) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	byMarket, ok := c.entries[itemName]
	if !ok {
		byMarket = make(map[model.Marketplace]model.PriceQuote, 3)
		c.entries[itemName] = byMarket
	}
	byMarket[quote.Marketplace] = quote
	return nil
}

// GetValid returns cached quotes for itemName aged at most ttl, in the
// canonical marketplace order.
func (c *MemoryPriceCache) GetValid(ctx context.Context, itemName string, ttl time.Duration) ([]model.PriceQuote, error) {
	now := c.clock.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	byMarket, ok := c.entries[itemName]
	if !ok {
		return nil, nil
	}

	out := make([]model.PriceQuote, 0, len(byMarket))
	for _, m := range model.Marketplaces() {
		q, ok := byMarket[m]
		if !ok {
			continue
		}
		if now.Sub(q.FetchedAt) <= ttl {
			out = append(out, q)
		}
	}
	return out, nil
}

var _ PriceCache = (*MemoryPriceCache)(nil)
