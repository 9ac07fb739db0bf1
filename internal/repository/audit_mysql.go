package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"skinvault-api/internal/model"
)

// MySQLSyncAuditRepository implements SyncAuditRepository using MySQL.
// One row per sync attempt, success or not.
type MySQLSyncAuditRepository struct {
	db *sql.DB
}

// NewMySQLSyncAuditRepository creates a new MySQL sync audit repository.
func NewMySQLSyncAuditRepository(db *sql.DB) *MySQLSyncAuditRepository {
	return &MySQLSyncAuditRepository{db: db}
}

// Insert records a sync attempt.
func (r *MySQLSyncAuditRepository) Insert(ctx context.Context, entry model.SyncAuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `INSERT INTO sync_audit
		(user_id, steam_id, status, item_count, message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		entry.UserID, entry.SteamID, string(entry.Status),
		entry.ItemCount, entry.Message, entry.DurationMS, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sync audit entry: %w", err)
	}
	return nil
}

// ListRecent returns the most recent sync attempts, newest first.
func (r *MySQLSyncAuditRepository) ListRecent(ctx context.Context, limit int) ([]model.SyncAuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, user_id, steam_id, status, item_count, message, duration_ms, created_at
		FROM sync_audit ORDER BY created_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync audit: %w", err)
	}
	defer rows.Close()

	entries := []model.SyncAuditEntry{}
	for rows.Next() {
		var e model.SyncAuditEntry
		var status string
		if err := rows.Scan(&e.ID, &e.UserID, &e.SteamID, &status, &e.ItemCount, &e.Message, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync audit entry: %w", err)
		}
		e.Status = model.SyncStatus(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ SyncAuditRepository = (*MySQLSyncAuditRepository)(nil)
