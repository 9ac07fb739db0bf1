package cache

import (
	"context"
	"time"

	"skinvault-api/internal/model"
)

// PriceCache stores the most recent quote per (item, marketplace).
// This abstraction allows swapping between the in-memory store
// (development, tests) and Redis (production) without changing callers.
//
// Entries are never evicted eagerly: GetValid filters them by age at read
// time, and Put overwrites them on the next successful fetch.
type PriceCache interface {
	// Put overwrites the entry for (itemName, quote.Marketplace).
	Put(ctx context.Context, itemName string, quote model.PriceQuote) error

	// GetValid returns every cached quote for itemName whose age is at
	// most ttl. The boundary is inclusive: an entry aged exactly ttl is
	// still valid.
	GetValid(ctx context.Context, itemName string, ttl time.Duration) ([]model.PriceQuote, error)
}
