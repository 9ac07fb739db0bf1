package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"skinvault-api/internal/model"
)

// MySQLUserRepository implements UserRepository using MySQL.
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQL user repository.
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

const userColumns = `id, steam_id, last_active_at, last_sync_at, last_sync_status, inventory_public, consent_granted_at`

func scanUser(row *sql.Row) (*model.UserAccount, error) {
	var u model.UserAccount
	var lastSyncAt, consentAt sql.NullTime
	var status sql.NullString

	err := row.Scan(&u.ID, &u.SteamID, &u.LastActiveAt, &lastSyncAt, &status, &u.InventoryPublic, &consentAt)
	if err != nil {
		return nil, err
	}
	if lastSyncAt.Valid {
		u.LastSyncAt = &lastSyncAt.Time
	}
	if status.Valid {
		u.LastSyncStatus = model.SyncStatus(status.String)
	}
	if consentAt.Valid {
		u.ConsentGrantedAt = &consentAt.Time
	}
	return &u, nil
}

// GetByID finds a user account by internal ID.
func (r *MySQLUserRepository) GetByID(ctx context.Context, id int64) (*model.UserAccount, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? LIMIT 1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found: %d", id)
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// GetBySteamID finds a user account by linked Steam ID.
func (r *MySQLUserRepository) GetBySteamID(ctx context.Context, steamID string) (*model.UserAccount, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE steam_id = ? LIMIT 1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, steamID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found for steam id: %s", steamID)
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// ListRefreshEligible returns users matching the refresh eligibility
// predicate: active since activeSince, last successful sync before
// syncedBefore, inventory public, consent granted.
func (r *MySQLUserRepository) ListRefreshEligible(ctx context.Context, activeSince, syncedBefore time.Time) ([]model.UserAccount, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE last_active_at >= ?
		  AND last_sync_at IS NOT NULL
		  AND last_sync_at < ?
		  AND last_sync_status = 'success'
		  AND inventory_public = 1
		  AND consent_granted_at IS NOT NULL
		ORDER BY last_sync_at ASC`

	rows, err := r.db.QueryContext(ctx, query, activeSince, syncedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible users: %w", err)
	}
	defer rows.Close()

	var users []model.UserAccount
	for rows.Next() {
		var u model.UserAccount
		var lastSyncAt, consentAt sql.NullTime
		var status sql.NullString
		if err := rows.Scan(&u.ID, &u.SteamID, &u.LastActiveAt, &lastSyncAt, &status, &u.InventoryPublic, &consentAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if lastSyncAt.Valid {
			u.LastSyncAt = &lastSyncAt.Time
		}
		if status.Valid {
			u.LastSyncStatus = model.SyncStatus(status.String)
		}
		if consentAt.Valid {
			u.ConsentGrantedAt = &consentAt.Time
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// RecordSyncResult updates the user's last sync bookkeeping. A private
// outcome also flips the inventory_public flag so the user drops out of
// scheduled refresh until they act.
func (r *MySQLUserRepository) RecordSyncResult(ctx context.Context, userID int64, status model.SyncStatus, syncedAt time.Time) error {
	query := `UPDATE users
		SET last_sync_at = ?, last_sync_status = ?,
		    inventory_public = IF(? = 'private', 0, inventory_public)
		WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, syncedAt, string(status), string(status), userID); err != nil {
		return fmt.Errorf("failed to record sync result: %w", err)
	}
	return nil
}

var _ UserRepository = (*MySQLUserRepository)(nil)
