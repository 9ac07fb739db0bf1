package model

import "time"

// Marketplace identifies an external price source.
type Marketplace string

const (
	MarketplaceSteam    Marketplace = "steam"
	MarketplaceCSFloat  Marketplace = "csfloat"
	MarketplaceSkinport Marketplace = "skinport"
)

// Marketplaces lists every supported marketplace in canonical order.
func Marketplaces() []Marketplace {
	return []Marketplace{MarketplaceSteam, MarketplaceCSFloat, MarketplaceSkinport}
}

// PriceQuote is one marketplace's reported price for an item at a point
// in time. Immutable once created.
type PriceQuote struct {
	Marketplace Marketplace `json:"marketplace"`
	Price       float64     `json:"price"`
	Currency    string      `json:"currency"`
	ListingURL  string      `json:"listing_url"`
	FetchedAt   time.Time   `json:"fetched_at"`
}

// MarketplacePrice is a quote enriched with the buyer's total cost
// (price plus marketplace fees) for aggregated output.
type MarketplacePrice struct {
	Marketplace Marketplace `json:"marketplace"`
	Price       float64     `json:"price"`
	TotalCost   float64     `json:"total_cost"`
	ListingURL  string      `json:"listing_url"`
	FetchedAt   time.Time   `json:"fetched_at"`
}

// AggregatedPriceResult is the canonical cheapest-price view for one item.
// LowestPrice is nil when no marketplace quote is currently valid.
type AggregatedPriceResult struct {
	ItemID      string             `json:"item_id"`
	ItemName    string             `json:"item_name"`
	LowestPrice *MarketplacePrice  `json:"lowest_price"`
	AllPrices   []MarketplacePrice `json:"all_prices"`
	Savings     float64            `json:"savings"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// BatchPrice is one entry of a batch lowest-price lookup. LowestPrice is
// nil when every adapter failed or returned no data for the item.
type BatchPrice struct {
	ItemName    string      `json:"item_name"`
	LowestPrice *PriceQuote `json:"lowest_price"`
}
