package marketplace

import (
	"context"
	"errors"
	"fmt"

	"skinvault-api/internal/model"
)

// ErrNotFound means the marketplace has no listing for the item. An empty
// or zero price is NotFound, never a zero-cost quote.
var ErrNotFound = errors.New("marketplace: item not found")

// UpstreamError is a transport failure, timeout, or non-success status
// from a marketplace API. It is surfaced to callers so sibling adapters
// keep running; it never aborts a batch.
type UpstreamError struct {
	Marketplace model.Marketplace
	StatusCode  int
	Err         error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s upstream error: %v", e.Marketplace, e.Err)
	}
	return fmt.Sprintf("%s upstream error: status %d", e.Marketplace, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Adapter fetches a single price quote for one item name from one
// marketplace and normalizes it into model.PriceQuote.
type Adapter interface {
	Name() model.Marketplace
	FetchPrice(ctx context.Context, itemName string) (*model.PriceQuote, error)
}

// FeeTable maps marketplaces to buyer-fee percentages used when deriving
// total cost from a raw price.
type FeeTable map[model.Marketplace]float64

// TotalCost applies the marketplace's buyer fee to a raw price. Unknown
// marketplaces pay no fee.
func (f FeeTable) TotalCost(m model.Marketplace, price float64) float64 {
	pct, ok := f[m]
	if !ok {
		return price
	}
	return price * (1 + pct/100)
}
