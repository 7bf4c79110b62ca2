// Package enchantments resolves numeric enchantment ids to item records. A Service caches
// results in memory and in a durable store, deduplicates concurrent lookups of one key,
// and drains a dispatch queue with a bounded number of rate-limited fetch workers that
// retry with exponential backoff and respect the source's cooldown.
//
// Callers never see an error: every key settles to a Resolution, falling back to a
// synthesized "Enchantment {key}" record when the source cannot be read.
package enchantments

import (
	"context"
	"fmt"
	"time"
)

// Category classifies a resolved item
type Category string

const (
	CategoryGem     Category = "gem"
	CategoryEnchant Category = "enchant"
	CategoryUnknown Category = "unknown"
)

// ParseCategory maps a stored category name back to a Category, unknown for anything else
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryGem, CategoryEnchant:
		return Category(s)
	default:
		return CategoryUnknown
	}
}

// Resolution is the result handed to callers. A nil ItemID means the item could not be
// determined.
type Resolution struct {
	Key      int      `json:"key"`
	ItemID   *int     `json:"itemId"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

// Unknown is returned for keys that can never be resolved (key < 1)
func Unknown(key int) Resolution {
	return Resolution{Key: key, Name: "Unknown", Category: CategoryUnknown}
}

// Fallback is the placeholder for keys whose lookup came back empty or failed
func Fallback(key int) Resolution {
	return Resolution{Key: key, Name: PlaceholderName(key), Category: CategoryUnknown}
}

// PlaceholderName is the synthesized display name of an unresolved key
func PlaceholderName(key int) string {
	return fmt.Sprintf("Enchantment %d", key)
}

// Clone returns a copy that shares no memory with r
func (r Resolution) Clone() Resolution {
	if r.ItemID != nil {
		id := *r.ItemID
		r.ItemID = &id
	}
	return r
}

// Extraction is what a Fetcher found on the source page
type Extraction struct {
	ItemID   int
	Name     string
	Category Category
}

// Fetcher reads one key from the external source. A nil Extraction with a nil error means
// the page was read but nothing could be extracted; that outcome is terminal. Errors
// classified as recoverable by the common errors package are retried.
type Fetcher interface {
	Fetch(ctx context.Context, key int) (*Extraction, error)
}

// CacheEntry is a Resolution with the time it was fetched
type CacheEntry struct {
	Resolution Resolution
	FetchedAt  time.Time
	TTL        time.Duration
}

// Fresh reports whether the entry is younger than its TTL at now
func (e CacheEntry) Fresh(now time.Time) bool {
	return now.Sub(e.FetchedAt) < e.TTL
}

// CacheStats is the operational snapshot returned by GetCacheStats
type CacheStats struct {
	Size                int        `json:"size"`
	InFlightCount       int        `json:"inFlightCount"`
	QueueDepth          int        `json:"queueDepth"`
	CooldownActiveUntil *time.Time `json:"cooldownActiveUntil"`
}
