package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"enchantment-resolver/internal/handlers"
	"enchantment-resolver/internal/server"
)

// Router builds the admin API
func (app *App) Router() http.Handler {
	var redisHealth handlers.HealthChecker
	if app.RedisClient != nil {
		redisHealth = app.RedisClient
	}

	// nil pointers must not reach the interfaces
	var breaker handlers.SourceBreaker
	if app.Breaker != nil {
		breaker = app.Breaker
	}

	h := handlers.New(app.Resolver, app.Store, redisHealth, breaker)

	router := mux.NewRouter()
	SetupRoutes(router, h)
	return router
}

// RunServer creates the HTTP server for the admin API
func (app *App) RunServer() *server.Server {
	return server.New(app.Router(), app.Config.Port)
}
