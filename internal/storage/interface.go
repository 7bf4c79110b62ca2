// Package storage defines the durable store for resolved enchantments and the backends
// selected by DATABASE_TYPE.
package storage

import (
	"context"
	"time"
)

// Record is one persisted resolution row
type Record struct {
	EnchantID int
	ItemID    *int
	Name      string
	Category  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists resolutions across restarts. Implementations must make Upsert safe for
// concurrent calls on different keys.
type Store interface {
	// LoadRecent returns rows updated within maxAge of now
	LoadRecent(ctx context.Context, maxAge time.Duration) ([]Record, error)
	// Upsert inserts or updates the row for rec.EnchantID, refreshing updated_at.
	// created_at is kept from the first insert.
	Upsert(ctx context.Context, rec Record) error
	Health(ctx context.Context) error
	Close() error
}
