package app

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"enchantment-resolver/internal/handlers"
	"enchantment-resolver/internal/middleware"
)

// SetupRoutes configures all HTTP routes for the application
func SetupRoutes(router *mux.Router, h *handlers.Handlers) {
	router.Use(middleware.LoggingMiddleware)

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/enchantments", h.GetEnchantments).Methods("GET")
	// fixed paths before {id}
	api.HandleFunc("/enchantments/stats", h.GetCacheStats).Methods("GET")
	api.HandleFunc("/enchantments/cache", h.ClearCache).Methods("DELETE")
	api.HandleFunc("/enchantments/{id}", h.GetEnchantment).Methods("GET")
}
