package service

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"skinvault-api/internal/cache"
	"skinvault-api/internal/marketplace"
	"skinvault-api/internal/model"
	"skinvault-api/pkg/clock"
)

// ErrNoPriceData means no marketplace quote is currently valid for the
// item. Price queries degrade to this, never to a hard failure.
var ErrNoPriceData = errors.New("no price data")

// PriceService is the batch fetch orchestrator: it refreshes stale cache
// entries through the marketplace adapters and answers lowest-price
// queries from the valid set.
//
// Adapters are expected to arrive already wrapped in their per-
// marketplace rate gates, so calls to one marketplace are serialized and
// spaced no matter how many items a batch touches.
type PriceService struct {
	adapters []marketplace.Adapter
	cache    cache.PriceCache
	fees     marketplace.FeeTable
	ttl      time.Duration
	clock    clock.Clock

	// coalesces concurrent refreshes of the same item
	sf singleflight.Group
}

// NewPriceService creates a price service. ttl bounds quote validity;
// a nil clock defaults to the real one.
func NewPriceService(adapters []marketplace.Adapter, priceCache cache.PriceCache, fees marketplace.FeeTable, ttl time.Duration, clk clock.Clock) *PriceService {
	if clk == nil {
		clk = clock.Real()
	}
	return &PriceService{
		adapters: adapters,
		cache:    priceCache,
		fees:     fees,
		ttl:      ttl,
		clock:    clk,
	}
}

// FetchBatch resolves the lowest price for each item name. The output
// always has the same length and order as the input; an item whose every
// adapter failed or returned nothing gets a nil LowestPrice, and never
// aborts the batch.
func (s *PriceService) FetchBatch(ctx context.Context, itemNames []string) []model.BatchPrice {
	out := make([]model.BatchPrice, len(itemNames))
	for i, name := range itemNames {
		quotes := s.refreshItem(ctx, name)
		out[i] = model.BatchPrice{
			ItemName:    name,
			LowestPrice: Lowest(quotes),
		}
	}
	return out
}

// GetItemPrices returns the aggregated price view for one item,
// refreshing stale quotes first. Concurrent requests for the same item
// share one refresh.
func (s *PriceService) GetItemPrices(ctx context.Context, itemID, itemName string) (*model.AggregatedPriceResult, error) {
	v, _, _ := s.sf.Do(itemName, func() (any, error) {
		return s.refreshItem(ctx, itemName), nil
	})
	quotes := v.([]model.PriceQuote)
	if len(quotes) == 0 {
		return nil, ErrNoPriceData
	}

	prices := make([]model.MarketplacePrice, 0, len(quotes))
	for _, q := range quotes {
		prices = append(prices, model.MarketplacePrice{
			Marketplace: q.Marketplace,
			Price:       q.Price,
			TotalCost:   s.fees.TotalCost(q.Marketplace, q.Price),
			ListingURL:  q.ListingURL,
			FetchedAt:   q.FetchedAt,
		})
	}

	result := BuildResult(itemID, itemName, prices)
	return &result, nil
}

// refreshItem reads the cache for one item, calls the adapter for every
// marketplace whose entry is stale or absent, writes fresh quotes back,
// and returns the resulting valid set. Adapter failures are logged and
// isolated; whatever is valid is returned.
func (s *PriceService) refreshItem(ctx context.Context, itemName string) []model.PriceQuote {
	valid, err := s.cache.GetValid(ctx, itemName, s.ttl)
	if err != nil {
		log.Printf("[PriceService] cache read failed for %q: %v", itemName, err)
		valid = nil
	}

	have := make(map[model.Marketplace]bool, len(valid))
	for _, q := range valid {
		have[q.Marketplace] = true
	}

	for _, a := range s.adapters {
		if have[a.Name()] {
			continue
		}
		quote, err := a.FetchPrice(ctx, itemName)
		if err != nil {
			if !errors.Is(err, marketplace.ErrNotFound) {
				log.Printf("[PriceService] %s fetch failed for %q: %v", a.Name(), itemName, err)
			}
			continue
		}
		if err := s.cache.Put(ctx, itemName, *quote); err != nil {
			log.Printf("[PriceService] cache write failed for %q: %v", itemName, err)
		}
		valid = append(valid, *quote)
	}
	return valid
}
