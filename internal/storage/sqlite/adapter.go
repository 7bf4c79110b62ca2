package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"enchantment-resolver/internal/storage"
)

type Adapter struct {
	db     *sql.DB
	config *Config
}

func NewAdapter(config *Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SQLite config: %w", err)
	}

	db, err := sql.Open("sqlite3", config.GetConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection serialises writers instead of surfacing SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	adapter := &Adapter{
		db:     db,
		config: config,
	}

	if err := adapter.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return adapter, nil
}

func (a *Adapter) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS enchantments (
			enchant_id INTEGER PRIMARY KEY,
			item_id INTEGER,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_enchantments_updated_at ON enchantments(updated_at)`,
	}

	for _, query := range queries {
		if _, err := a.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration query: %w", err)
		}
	}
	return nil
}

// Timestamps are stored as unix milliseconds so range filters compare numerically.
func (a *Adapter) LoadRecent(ctx context.Context, maxAge time.Duration) ([]storage.Record, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()

	rows, err := a.db.QueryContext(ctx, `
		SELECT enchant_id, item_id, name, category, created_at, updated_at
		FROM enchantments
		WHERE updated_at >= ?
		ORDER BY updated_at`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent enchantments: %w", err)
	}
	defer rows.Close()

	var records []storage.Record
	for rows.Next() {
		var (
			rec                  storage.Record
			itemID               sql.NullInt64
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&rec.EnchantID, &itemID, &rec.Name, &rec.Category, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan enchantment: %w", err)
		}
		if itemID.Valid {
			id := int(itemID.Int64)
			rec.ItemID = &id
		}
		rec.CreatedAt = time.UnixMilli(createdAt)
		rec.UpdatedAt = time.UnixMilli(updatedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate enchantments: %w", err)
	}
	return records, nil
}

func (a *Adapter) Upsert(ctx context.Context, rec storage.Record) error {
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	var itemID sql.NullInt64
	if rec.ItemID != nil {
		itemID = sql.NullInt64{Int64: int64(*rec.ItemID), Valid: true}
	}

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO enchantments (enchant_id, item_id, name, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(enchant_id) DO UPDATE SET
			item_id = excluded.item_id,
			name = excluded.name,
			category = excluded.category,
			updated_at = excluded.updated_at`,
		rec.EnchantID, itemID, rec.Name, rec.Category, updatedAt.UnixMilli(), updatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert enchantment %d: %w", rec.EnchantID, err)
	}
	return nil
}

func (a *Adapter) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
