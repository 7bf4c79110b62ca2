package handlers

import (
	"context"

	"enchantment-resolver/internal/enchantments"
)

// Resolver is the part of enchantments.Service the API exposes
type Resolver interface {
	Resolve(ctx context.Context, key int) enchantments.Resolution
	ResolveMultiple(ctx context.Context, keys []int) []enchantments.Resolution
	GetCacheStats(ctx context.Context) enchantments.CacheStats
	ClearCache()
}

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// SourceBreaker is the circuit breaker guarding the enchantment source
type SourceBreaker interface {
	State() string
	IsOpen() bool
}

type Handlers struct {
	resolver Resolver
	store    HealthChecker
	redis    HealthChecker
	breaker  SourceBreaker
}

// New creates the API handlers. redis and breaker are nil when disabled.
func New(resolver Resolver, store HealthChecker, redis HealthChecker, breaker SourceBreaker) *Handlers {
	return &Handlers{
		resolver: resolver,
		store:    store,
		redis:    redis,
		breaker:  breaker,
	}
}
