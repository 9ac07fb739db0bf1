package model

import "time"

// InventoryAsset is one asset row from a user's external inventory.
type InventoryAsset struct {
	AssetID    string `json:"asset_id"`
	ClassID    string `json:"class_id"`
	InstanceID string `json:"instance_id"`
}

// AssetDescription carries display metadata for an asset class. Assets
// join to descriptions by the composite (ClassID, InstanceID) key.
type AssetDescription struct {
	ClassID        string `json:"class_id"`
	InstanceID     string `json:"instance_id"`
	IconURL        string `json:"icon_url"`
	MarketHashName string `json:"market_hash_name"`
}

// InventoryItem is an asset joined with its description. Description
// fields stay empty when the upstream page had no matching description.
type InventoryItem struct {
	AssetID        string `json:"asset_id"`
	ClassID        string `json:"class_id"`
	InstanceID     string `json:"instance_id"`
	IconURL        string `json:"icon_url,omitempty"`
	MarketHashName string `json:"market_hash_name,omitempty"`
}

// InventorySnapshot is a user's full external inventory as of one sync.
// Built fresh on each sync; never diffed against prior state.
type InventorySnapshot struct {
	SteamID  string          `json:"steam_id"`
	Items    []InventoryItem `json:"items"`
	SyncedAt time.Time       `json:"synced_at"`
}

// SyncStatus enumerates terminal outcomes of one sync attempt.
type SyncStatus string

const (
	SyncStatusSuccess     SyncStatus = "success"
	SyncStatusRateLimited SyncStatus = "rate_limited"
	SyncStatusPrivate     SyncStatus = "private"
	SyncStatusError       SyncStatus = "upstream_error"
)

// SyncOutcome is the terminal result of one sync attempt for one user.
type SyncOutcome struct {
	Status     SyncStatus    `json:"status"`
	ItemCount  int           `json:"item_count,omitempty"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
	Code       int           `json:"code,omitempty"`
	Message    string        `json:"message,omitempty"`
}
