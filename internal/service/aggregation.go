package service

import (
	"sort"
	"time"

	"skinvault-api/internal/model"
)

// Lowest returns the quote with the minimum price, scanning linearly and
// keeping the running minimum. Ties keep the first-encountered quote
// (strict < comparison); that ordering is part of the contract, not an
// accident. Empty input yields nil.
func Lowest(quotes []model.PriceQuote) *model.PriceQuote {
	if len(quotes) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(quotes); i++ {
		if quotes[i].Price < quotes[best].Price {
			best = i
		}
	}
	return &quotes[best]
}

// Savings is the spread between the highest and lowest price in the set.
// Fewer than two quotes means no comparison to make, so 0.
func Savings(quotes []model.PriceQuote) float64 {
	if len(quotes) < 2 {
		return 0
	}
	min, max := quotes[0].Price, quotes[0].Price
	for _, q := range quotes[1:] {
		if q.Price < min {
			min = q.Price
		}
		if q.Price > max {
			max = q.Price
		}
	}
	return max - min
}

// SortByTotalCost orders prices ascending by total cost. Callers add
// marketplace fees before sorting, not after. The sort is stable so
// equal totals preserve input order.
func SortByTotalCost(prices []model.MarketplacePrice) {
	sort.SliceStable(prices, func(i, j int) bool {
		return prices[i].TotalCost < prices[j].TotalCost
	})
}

// BuildResult assembles the aggregated view for one item from its
// fee-adjusted prices. Savings is the spread of total costs; UpdatedAt
// is the newest contributing fetch.
func BuildResult(itemID, itemName string, prices []model.MarketplacePrice) model.AggregatedPriceResult {
	result := model.AggregatedPriceResult{
		ItemID:    itemID,
		ItemName:  itemName,
		AllPrices: prices,
	}
	if len(prices) == 0 {
		return result
	}

	SortByTotalCost(result.AllPrices)
	result.LowestPrice = &result.AllPrices[0]

	if len(prices) >= 2 {
		result.Savings = result.AllPrices[len(result.AllPrices)-1].TotalCost - result.AllPrices[0].TotalCost
	}

	var updatedAt time.Time
	for _, p := range prices {
		if p.FetchedAt.After(updatedAt) {
			updatedAt = p.FetchedAt
		}
	}
	result.UpdatedAt = updatedAt
	return result
}
