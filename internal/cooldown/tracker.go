// Package cooldown tracks the window during which the enchantment source is assumed to be
// throttling or banning this client. No fetch may reach the network while it is active.
package cooldown

import (
	"context"
	"sync"
	"time"
)

// DefaultPenalty is how long a single throttle signal blocks outbound fetches
const DefaultPenalty = 60 * time.Second

// Tracker records the "banned until" instant
type Tracker interface {
	// Trip starts a cooldown of one penalty from now and returns its end.
	// A running cooldown that already ends later is kept.
	Trip(ctx context.Context) time.Time
	// ActiveUntil returns the end of the cooldown and whether it is still running
	ActiveUntil(ctx context.Context) (time.Time, bool)
}

// LocalTracker keeps the cooldown in process memory
type LocalTracker struct {
	mu          sync.RWMutex
	bannedUntil time.Time
	penalty     time.Duration
}

func NewLocalTracker(penalty time.Duration) *LocalTracker {
	if penalty <= 0 {
		penalty = DefaultPenalty
	}
	return &LocalTracker{penalty: penalty}
}

func (t *LocalTracker) Trip(_ context.Context) time.Time {
	return t.extend(time.Now().Add(t.penalty))
}

func (t *LocalTracker) ActiveUntil(_ context.Context) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.bannedUntil, time.Now().Before(t.bannedUntil)
}

// extend moves bannedUntil forward to until and never backwards
func (t *LocalTracker) extend(until time.Time) time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if until.After(t.bannedUntil) {
		t.bannedUntil = until
	}
	return t.bannedUntil
}
