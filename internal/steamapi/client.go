package steamapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"skinvault-api/internal/httpx"
	"skinvault-api/internal/model"
)

const defaultEndpoint = "https://steamcommunity.com/inventory"

// ErrPrivateInventory means the user's inventory is not publicly visible.
// This is terminal for a sync attempt; the user has to change their
// privacy settings.
var ErrPrivateInventory = errors.New("steamapi: inventory is private")

// RateLimitError is a 429 from the inventory endpoint. The caller must
// retry the identical page request after the cooldown.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("steamapi: rate limited, retry after %s", e.RetryAfter)
}

// UpstreamError is any other non-success response or transport failure,
// timeouts included.
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("steamapi: %v", e.Err)
	}
	return fmt.Sprintf("steamapi: status %d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Page is one page of a user's inventory. LastAssetID is the cursor for
// the next page; end-of-data is signaled by a short page, not a cursor.
type Page struct {
	Assets       []model.InventoryAsset
	Descriptions []model.AssetDescription
	LastAssetID  string
}

// Config controls the inventory client.
type Config struct {
	Endpoint  string
	AppID     int
	ContextID int
}

// Client fetches inventory pages from the Steam community endpoint.
type Client struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.AppID == 0 {
		cfg.AppID = 730
	}
	if cfg.ContextID == 0 {
		cfg.ContextID = 2
	}
	return &Client{cfg: cfg, client: hc}
}

type apiAsset struct {
	AssetID    string `json:"assetid"`
	ClassID    string `json:"classid"`
	InstanceID string `json:"instanceid"`
}

type apiDescription struct {
	ClassID        string `json:"classid"`
	InstanceID     string `json:"instanceid"`
	IconURL        string `json:"icon_url"`
	MarketHashName string `json:"market_hash_name"`
}

type apiResponse struct {
	Assets       []apiAsset       `json:"assets"`
	Descriptions []apiDescription `json:"descriptions"`
	LastAssetID  string           `json:"last_assetid"`
	Success      int              `json:"success"`
}

// FetchPage requests up to count assets starting after startAssetID
// (empty for the first page).
func (c *Client) FetchPage(ctx context.Context, steamID, startAssetID string, count int) (*Page, error) {
	url := fmt.Sprintf("%s/%s/%d/%d?l=english&count=%d",
		c.cfg.Endpoint, steamID, c.cfg.AppID, c.cfg.ContextID, count)
	if startAssetID != "" {
		url += "&start_assetid=" + startAssetID
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrPrivateInventory
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &UpstreamError{StatusCode: resp.StatusCode}
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &UpstreamError{Err: fmt.Errorf("decode: %w", err)}
	}
	if body.Success != 1 {
		return nil, &UpstreamError{Err: fmt.Errorf("success=%d", body.Success)}
	}

	page := &Page{
		Assets:       make([]model.InventoryAsset, 0, len(body.Assets)),
		Descriptions: make([]model.AssetDescription, 0, len(body.Descriptions)),
		LastAssetID:  body.LastAssetID,
	}
	for _, a := range body.Assets {
		page.Assets = append(page.Assets, model.InventoryAsset{
			AssetID:    a.AssetID,
			ClassID:    a.ClassID,
			InstanceID: a.InstanceID,
		})
	}
	for _, d := range body.Descriptions {
		page.Descriptions = append(page.Descriptions, model.AssetDescription{
			ClassID:        d.ClassID,
			InstanceID:     d.InstanceID,
			IconURL:        d.IconURL,
			MarketHashName: d.MarketHashName,
		})
	}
	return page, nil
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}
