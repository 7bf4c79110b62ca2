package cooldown

import (
	"context"
	"strconv"
	"time"

	"enchantment-resolver/internal/common/logging"
	"enchantment-resolver/internal/redis"
)

// DefaultRedisKey holds the shared banned-until instant in unix milliseconds
const DefaultRedisKey = "enchantments:cooldown"

// RedisTracker shares the cooldown between resolver instances through Redis.
// The local copy answers first; Redis failures degrade to local-only behaviour.
type RedisTracker struct {
	client *redis.Client
	key    string
	local  *LocalTracker
	logger logging.Logger
}

func NewRedisTracker(client *redis.Client, penalty time.Duration, logger logging.Logger) *RedisTracker {
	if logger == nil {
		logger = logging.Component("cooldown")
	}
	return &RedisTracker{
		client: client,
		key:    DefaultRedisKey,
		local:  NewLocalTracker(penalty),
		logger: logger,
	}
}

func (t *RedisTracker) Trip(ctx context.Context) time.Time {
	until := t.local.Trip(ctx)

	ttl := time.Until(until)
	value := strconv.FormatInt(until.UnixMilli(), 10)
	if err := t.client.Set(ctx, t.key, value, ttl); err != nil {
		t.logger.Warn("Failed to share cooldown, keeping it local",
			logging.Err(err),
			logging.Time("banned_until", until),
		)
	}
	return until
}

func (t *RedisTracker) ActiveUntil(ctx context.Context) (time.Time, bool) {
	if until, active := t.local.ActiveUntil(ctx); active {
		return until, true
	}

	value, found, err := t.client.Get(ctx, t.key)
	if err != nil {
		t.logger.Warn("Failed to read shared cooldown", logging.Err(err))
		return t.local.ActiveUntil(ctx)
	}
	if !found {
		return t.local.ActiveUntil(ctx)
	}

	millis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		t.logger.Warn("Ignoring malformed shared cooldown",
			logging.String("value", value),
			logging.Err(err),
		)
		return t.local.ActiveUntil(ctx)
	}

	shared := time.UnixMilli(millis)
	if time.Now().Before(shared) {
		return t.local.extend(shared), true
	}
	return t.local.ActiveUntil(ctx)
}
