package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// GetCacheStats returns the resolver's operational snapshot
// @Summary Get resolver statistics
// @Description Returns cache size, in-flight keys, queue depth and the cooldown end
// @Tags enchantments
// @Produce json
// @Success 200 {object} enchantments.CacheStats
// @Router /api/enchantments/stats [get]
func (h *Handlers) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	stats := h.resolver.GetCacheStats(r.Context())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// ClearCache empties the resolver's memory cache
// @Summary Clear the memory cache
// @Description Drops every in-memory resolution. Persisted records are kept.
// @Tags enchantments
// @Success 204
// @Router /api/enchantments/cache [delete]
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.resolver.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck reports the state of the durable store, Redis and the source breaker
// @Summary Health check
// @Description Database failure makes the service unhealthy; Redis failure or an open source breaker only degrades it
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := map[string]string{
		"status":   "healthy",
		"database": "healthy",
		"redis":    "not_configured",
		"source":   "not_configured",
	}
	code := http.StatusOK

	if h.redis != nil {
		if err := h.redis.Health(ctx); err != nil {
			status["redis"] = "unhealthy"
			status["status"] = "degraded"
		} else {
			status["redis"] = "healthy"
		}
	}

	if h.breaker != nil {
		status["source"] = h.breaker.State()
		if h.breaker.IsOpen() {
			status["status"] = "degraded"
		}
	}

	if h.store != nil {
		if err := h.store.Health(ctx); err != nil {
			status["database"] = "unhealthy"
			status["status"] = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(status)
}
