package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"skinvault-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteInventoryRepository implements InventoryRepository using SQLite.
// Thread-safe with WAL mode for high-concurrency reads.
type SQLiteInventoryRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteInventoryRepository creates a new SQLite inventory repository.
// dbPath is the path to the SQLite database file (e.g., "./data/inventory.db")
func NewSQLiteInventoryRepository(dbPath string) (*SQLiteInventoryRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createInventoryTable(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteInventoryRepository] Initialized with database: %s", dbPath)
	return &SQLiteInventoryRepository{db: db}, nil
}

func createInventoryTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS inventory_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		steam_id TEXT NOT NULL UNIQUE,
		items_json TEXT NOT NULL,
		synced_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_steam_id ON inventory_snapshots(steam_id);
	CREATE INDEX IF NOT EXISTS idx_snapshots_synced_at ON inventory_snapshots(synced_at);
	`
	_, err := db.Exec(query)
	return err
}

// UpsertSnapshot replaces the stored snapshot for the snapshot's user.
func (r *SQLiteInventoryRepository) UpsertSnapshot(ctx context.Context, snapshot model.InventorySnapshot) error {
	itemsJSON, err := json.Marshal(snapshot.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot items: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO inventory_snapshots (steam_id, items_json, synced_at)
		VALUES (?, ?, ?)
		ON CONFLICT(steam_id) DO UPDATE SET
			items_json = excluded.items_json,
			synced_at = excluded.synced_at`

	_, err = r.db.ExecContext(ctx, query, snapshot.SteamID, string(itemsJSON), snapshot.SyncedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the latest snapshot for a Steam ID, or nil when
// the user has never synced.
func (r *SQLiteInventoryRepository) GetSnapshot(ctx context.Context, steamID string) (*model.InventorySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT items_json, synced_at FROM inventory_snapshots WHERE steam_id = ?`

	var itemsJSON string
	var syncedAt time.Time

	err := r.db.QueryRowContext(ctx, query, steamID).Scan(&itemsJSON, &syncedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var items []model.InventoryItem
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot items: %w", err)
	}

	return &model.InventorySnapshot{
		SteamID:  steamID,
		Items:    items,
		SyncedAt: syncedAt,
	}, nil
}

// Close closes the database connection.
func (r *SQLiteInventoryRepository) Close() error {
	return r.db.Close()
}

var _ InventoryRepository = (*SQLiteInventoryRepository)(nil)
