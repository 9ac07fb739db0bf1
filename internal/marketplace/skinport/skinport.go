package skinport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"skinvault-api/internal/httpx"
	"skinvault-api/internal/marketplace"
	"skinvault-api/internal/model"
	"skinvault-api/pkg/clock"
)

const defaultEndpoint = "https://api.skinport.com/v1/items"

// Config controls the Skinport aggregator adapter.
type Config struct {
	Endpoint string
	AppID    int
	Currency string
	// ItemsTTL bounds how long the full items payload is reused between
	// upstream fetches. Skinport serves one large aggregated list, so a
	// per-item request model would hammer the same endpoint.
	ItemsTTL time.Duration
}

// Adapter serves quotes from Skinport's aggregated items payload. The
// payload is cached for ItemsTTL and concurrent refreshes are coalesced.
type Adapter struct {
	cfg    Config
	client *httpx.Client
	clock  clock.Clock

	mu    sync.RWMutex
	items map[string]item
	until time.Time

	sf singleflight.Group
}

func New(cfg Config, hc *httpx.Client, clk clock.Clock) *Adapter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.AppID == 0 {
		cfg.AppID = 730
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.ItemsTTL <= 0 {
		cfg.ItemsTTL = time.Minute
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Adapter{cfg: cfg, client: hc, clock: clk}
}

func (a *Adapter) Name() model.Marketplace { return model.MarketplaceSkinport }

type item struct {
	MarketHashName string   `json:"market_hash_name"`
	Currency       string   `json:"currency"`
	ItemPage       string   `json:"item_page"`
	MinPrice       *float64 `json:"min_price"`
}

func (a *Adapter) FetchPrice(ctx context.Context, itemName string) (*model.PriceQuote, error) {
	items, err := a.currentItems(ctx)
	if err != nil {
		return nil, err
	}

	it, ok := items[itemName]
	if !ok || it.MinPrice == nil || *it.MinPrice <= 0 {
		return nil, marketplace.ErrNotFound
	}

	listingURL := it.ItemPage
	if listingURL == "" {
		listingURL = "https://skinport.com/market?search=" + url.QueryEscape(itemName)
	}
	currency := it.Currency
	if currency == "" {
		currency = a.cfg.Currency
	}

	return &model.PriceQuote{
		Marketplace: a.Name(),
		Price:       *it.MinPrice,
		Currency:    currency,
		ListingURL:  listingURL,
		FetchedAt:   a.clock.Now(),
	}, nil
}

// currentItems returns the cached payload, refreshing it when expired.
// Refreshes are coalesced so concurrent callers trigger one upstream GET.
func (a *Adapter) currentItems(ctx context.Context) (map[string]item, error) {
	now := a.clock.Now()

	a.mu.RLock()
	items, until := a.items, a.until
	a.mu.RUnlock()
	if items != nil && now.Before(until) {
		return items, nil
	}

	v, err, _ := a.sf.Do("items", func() (any, error) {
		fresh, err := a.fetchItems(ctx)
		if err != nil {
			return nil, err
		}
		a.mu.Lock()
		a.items = fresh
		a.until = a.clock.Now().Add(a.cfg.ItemsTTL)
		a.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		// Serve a stale payload over a hard failure when one exists.
		if items != nil {
			return items, nil
		}
		return nil, err
	}
	return v.(map[string]item), nil
}

func (a *Adapter) fetchItems(ctx context.Context) (map[string]item, error) {
	u, err := url.Parse(a.cfg.Endpoint)
	if err != nil {
		return nil, &marketplace.UpstreamError{Marketplace: a.Name(), Err: err}
	}
	q := u.Query()
	q.Set("app_id", strconv.Itoa(a.cfg.AppID))
	q.Set("currency", a.cfg.Currency)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, &marketplace.UpstreamError{Marketplace: a.Name(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return nil, &marketplace.UpstreamError{Marketplace: a.Name(), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &marketplace.UpstreamError{Marketplace: a.Name(), StatusCode: resp.StatusCode}
	}

	var list []item
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, &marketplace.UpstreamError{Marketplace: a.Name(), Err: fmt.Errorf("decode: %w", err)}
	}

	items := make(map[string]item, len(list))
	for _, it := range list {
		items[it.MarketHashName] = it
	}
	return items, nil
}
