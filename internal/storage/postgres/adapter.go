package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"enchantment-resolver/internal/storage"
)

type Adapter struct {
	pool   *pgxpool.Pool
	config *Config
}

func NewAdapter(config *Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid PostgreSQL config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, config.GetConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	adapter := &Adapter{
		pool:   pool,
		config: config,
	}

	if err := adapter.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return adapter, nil
}

func (a *Adapter) migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS enchantments (
			enchant_id BIGINT PRIMARY KEY,
			item_id BIGINT,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_enchantments_updated_at ON enchantments(updated_at)`,
	}

	for _, query := range queries {
		if _, err := a.pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute migration query: %w", err)
		}
	}
	return nil
}

func (a *Adapter) LoadRecent(ctx context.Context, maxAge time.Duration) ([]storage.Record, error) {
	rows, err := a.pool.Query(ctx, `
		SELECT enchant_id, item_id, name, category, created_at, updated_at
		FROM enchantments
		WHERE updated_at >= $1
		ORDER BY updated_at`, time.Now().Add(-maxAge))
	if err != nil {
		return nil, fmt.Errorf("failed to query recent enchantments: %w", err)
	}
	defer rows.Close()

	var records []storage.Record
	for rows.Next() {
		var (
			rec       storage.Record
			enchantID int64
			itemID    *int64
		)
		if err := rows.Scan(&enchantID, &itemID, &rec.Name, &rec.Category, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan enchantment: %w", err)
		}
		rec.EnchantID = int(enchantID)
		if itemID != nil {
			id := int(*itemID)
			rec.ItemID = &id
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate enchantments: %w", err)
	}
	return records, nil
}

func (a *Adapter) Upsert(ctx context.Context, rec storage.Record) error {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO enchantments (enchant_id, item_id, name, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (enchant_id) DO UPDATE SET
			item_id = EXCLUDED.item_id,
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			updated_at = EXCLUDED.updated_at`,
		upsertArgs(rec)...)
	if err != nil {
		return fmt.Errorf("failed to upsert enchantment %d: %w", rec.EnchantID, err)
	}
	return nil
}

// upsertArgs binds ids as int64 to match the BIGINT columns
func upsertArgs(rec storage.Record) []any {
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	var itemID *int64
	if rec.ItemID != nil {
		id := int64(*rec.ItemID)
		itemID = &id
	}

	return []any{int64(rec.EnchantID), itemID, rec.Name, rec.Category, updatedAt}
}

func (a *Adapter) Health(ctx context.Context) error {
	return a.pool.Ping(ctx)
}

func (a *Adapter) Close() error {
	if a.pool != nil {
		a.pool.Close()
	}
	return nil
}
