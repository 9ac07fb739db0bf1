package csfloat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"skinvault-api/internal/httpx"
	"skinvault-api/internal/marketplace"
	"skinvault-api/internal/model"
	"skinvault-api/pkg/clock"
)

const defaultEndpoint = "https://csfloat.com/api/v1/listings"

// Config controls the CSFloat listings adapter.
type Config struct {
	Endpoint string
	APIKey   string
}

// Adapter fetches the cheapest active listing for an item from CSFloat.
// Prices arrive as integer cents.
type Adapter struct {
	cfg    Config
	client *httpx.Client
	clock  clock.Clock
}

func New(cfg Config, hc *httpx.Client, clk clock.Clock) *Adapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Adapter{cfg: cfg, client: hc, clock: clk}
}

func (a *Adapter) Name() model.Marketplace { return model.MarketplaceCSFloat }

type listing struct {
	ID    string `json:"id"`
	Price int64  `json:"price"` // cents
}

type listingsResponse struct {
	Data []listing `json:"data"`
}

func (a *Adapter) FetchPrice(ctx context.Context, itemName string) (*model.PriceQuote, error) {
	u, err := url.Parse(a.cfg.Endpoint)
	if err != nil {
		return nil, &marketplace.UpstreamError{Marketplace: a.Name(), Err: err}
	}
	q := u.Query()
	q.Set("market_hash_name", itemName)
	q.Set("sort_by", "lowest_price")
	q.Set("limit", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, &marketplace.UpstreamError{Marketplace: a.Name(), Err: err}
	}
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", a.cfg.APIKey)
	}
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return nil, &marketplace.UpstreamError{Marketplace: a.Name(), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &marketplace.UpstreamError{Marketplace: a.Name(), StatusCode: resp.StatusCode}
	}

	var body listingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &marketplace.UpstreamError{Marketplace: a.Name(), Err: fmt.Errorf("decode: %w", err)}
	}
	if len(body.Data) == 0 || body.Data[0].Price <= 0 {
		return nil, marketplace.ErrNotFound
	}

	return &model.PriceQuote{
		Marketplace: a.Name(),
		Price:       float64(body.Data[0].Price) / 100,
		Currency:    "USD",
		ListingURL:  a.listingURL(itemName),
		FetchedAt:   a.clock.Now(),
	}, nil
}

func (a *Adapter) listingURL(itemName string) string {
	return "https://csfloat.com/search?market_hash_name=" + url.QueryEscape(itemName)
}
