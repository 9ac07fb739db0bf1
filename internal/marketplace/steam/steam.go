package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"skinvault-api/internal/httpx"
	"skinvault-api/internal/marketplace"
	"skinvault-api/internal/model"
	"skinvault-api/pkg/clock"
)

const defaultEndpoint = "https://steamcommunity.com/market/priceoverview/"

// Config controls the Steam community market adapter.
type Config struct {
	Endpoint string
	AppID    int
	// Currency is Steam's numeric currency code; 1 is USD.
	Currency int
}

// Adapter fetches quotes from the Steam community market priceoverview
// endpoint. Prices arrive as display strings like "$12.50".
type Adapter struct {
	cfg    Config
	client *httpx.Client
	clock  clock.Clock
}

func New(cfg Config, hc *httpx.Client, clk clock.Clock) *Adapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.AppID == 0 {
		cfg.AppID = 730
	}
	if cfg.Currency == 0 {
		cfg.Currency = 1
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Adapter{cfg: cfg, client: hc, clock: clk}
}

func (a *Adapter) Name() model.Marketplace { return model.MarketplaceSteam }

type priceOverview struct {
	Success     bool   `json:"success"`
	LowestPrice string `json:"lowest_price"`
	MedianPrice string `json:"median_price"`
	Volume      string `json:"volume"`
}

func (a *Adapter) FetchPrice(ctx context.Context, itemName string) (*model.PriceQuote, error) {
	u, err := url.Parse(a.cfg.Endpoint)
	if err != nil {
		return nil, &marketplace.UpstreamError{Marketplace: a.Name(), Err: err}
	}
	q := u.Query()
	q.Set("appid", strconv.Itoa(a.cfg.AppID))
	q.Set("currency", strconv.Itoa(a.cfg.Currency))
	q.Set("market_hash_name", itemName)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, &marketplace.UpstreamError{Marketplace: a.Name(), Err: err}
	}
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return nil, &marketplace.UpstreamError{Marketplace: a.Name(), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &marketplace.UpstreamError{Marketplace: a.Name(), StatusCode: resp.StatusCode}
	}

	var body priceOverview
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &marketplace.UpstreamError{Marketplace: a.Name(), Err: fmt.Errorf("decode: %w", err)}
	}
	if !body.Success || body.LowestPrice == "" {
		return nil, marketplace.ErrNotFound
	}

	price, err := parseDisplayPrice(body.LowestPrice)
	if err != nil {
		return nil, &marketplace.UpstreamError{Marketplace: a.Name(), Err: err}
	}
	if price <= 0 {
		return nil, marketplace.ErrNotFound
	}

	return &model.PriceQuote{
		Marketplace: a.Name(),
		Price:       price,
		Currency:    "USD",
		ListingURL:  a.listingURL(itemName),
		FetchedAt:   a.clock.Now(),
	}, nil
}

func (a *Adapter) listingURL(itemName string) string {
	return fmt.Sprintf("https://steamcommunity.com/market/listings/%d/%s",
		a.cfg.AppID, url.PathEscape(itemName))
}

// parseDisplayPrice turns strings like "$1,234.56" or "12,50€" into a float.
func parseDisplayPrice(s string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0, fmt.Errorf("unparseable price %q", s)
	}
	// Comma is a thousands separator unless it is the decimal mark
	// (no dot present and exactly two trailing digits).
	if !strings.Contains(cleaned, ".") {
		if idx := strings.LastIndex(cleaned, ","); idx >= 0 && len(cleaned)-idx-1 == 2 {
			cleaned = cleaned[:idx] + "." + cleaned[idx+1:]
		}
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable price %q: %w", s, err)
	}
	return v, nil
}
