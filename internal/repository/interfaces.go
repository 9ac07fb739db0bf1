package repository

import (
	"context"
	"time"

	"skinvault-api/internal/model"
)

// InventoryRepository persists inventory snapshots.
type InventoryRepository interface {
	// UpsertSnapshot replaces the stored snapshot for the snapshot's user.
	UpsertSnapshot(ctx context.Context, snapshot model.InventorySnapshot) error

	// GetSnapshot returns the latest snapshot for a Steam ID, or nil when
	// the user has never synced.
	GetSnapshot(ctx context.Context, steamID string) (*model.InventorySnapshot, error)

	// Close closes the repository connection.
	Close() error
}

// UserRepository defines user account data access.
type UserRepository interface {
	// GetByID finds a user account by internal ID.
	GetByID(ctx context.Context, id int64) (*model.UserAccount, error)

	// GetBySteamID finds a user account by linked Steam ID.
	GetBySteamID(ctx context.Context, steamID string) (*model.UserAccount, error)

	// ListRefreshEligible returns users active since activeSince whose
	// last successful sync predates syncedBefore, whose inventory is
	// public, and who have granted consent.
	ListRefreshEligible(ctx context.Context, activeSince, syncedBefore time.Time) ([]model.UserAccount, error)

	// RecordSyncResult updates the user's last sync bookkeeping.
	RecordSyncResult(ctx context.Context, userID int64, status model.SyncStatus, syncedAt time.Time) error
}

// SyncAuditRepository records one row per sync attempt.
type SyncAuditRepository interface {
	Insert(ctx context.Context, entry model.SyncAuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]model.SyncAuditEntry, error)
}
