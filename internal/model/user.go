package model

import "time"

// UserAccount is a tracked user with their linked external account and
// the bookkeeping the scheduled refresh eligibility predicate reads.
type UserAccount struct {
	ID               int64      `json:"id"`
	SteamID          string     `json:"steam_id"`
	LastActiveAt     time.Time  `json:"last_active_at"`
	LastSyncAt       *time.Time `json:"last_sync_at,omitempty"`
	LastSyncStatus   SyncStatus `json:"last_sync_status,omitempty"`
	InventoryPublic  bool       `json:"inventory_public"`
	ConsentGrantedAt *time.Time `json:"consent_granted_at,omitempty"`
}

// RefreshJobReport summarizes one scheduled refresh run. Returned to the
// caller, never persisted beyond the run's response.
type RefreshJobReport struct {
	UsersEligible  int      `json:"users_eligible"`
	UsersProcessed int      `json:"users_processed"`
	PerUserErrors  []string `json:"per_user_errors"`
	DurationMS     int64    `json:"duration_ms"`
}

// SyncAuditEntry is one row of the sync audit trail.
type SyncAuditEntry struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	SteamID    string     `json:"steam_id"`
	Status     SyncStatus `json:"status"`
	ItemCount  int        `json:"item_count"`
	Message    string     `json:"message,omitempty"`
	DurationMS int64      `json:"duration_ms"`
	CreatedAt  time.Time  `json:"created_at"`
}
