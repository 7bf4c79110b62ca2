package app

import (
	"context"

	"github.com/robfig/cron/v3"
	"enchantment-resolver/internal/circuitbreaker"
	"enchantment-resolver/internal/common/logging"
	"enchantment-resolver/internal/config"
	"enchantment-resolver/internal/cooldown"
	"enchantment-resolver/internal/enchantments"
	"enchantment-resolver/internal/fetcher"
	"enchantment-resolver/internal/redis"
	"enchantment-resolver/internal/storage"
)

// App holds all the application dependencies
type App struct {
	Config      *config.Config
	Store       storage.Store
	RedisClient *redis.Client
	Cooldown    cooldown.Tracker
	Breaker     *circuitbreaker.GoBreakerAdapter
	Fetcher     *fetcher.HTTPFetcher
	Resolver    *enchantments.Service
	Logger      logging.Logger

	scheduler *cron.Cron
}

// New creates a new application instance with all dependencies
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.Component("app"),
	}

	// Initialize components in order of dependency
	app.initializeStorage()

	if err := app.initializeRedis(); err != nil {
		// Redis is optional, the cooldown stays process-local
		app.Logger.Warn("Redis initialization failed, continuing without Redis",
			logging.Err(err))
	}

	app.initializeCooldown()
	app.initializeBreaker()

	if err := app.initializeFetcher(); err != nil {
		app.Cleanup()
		return nil, err
	}

	app.initializeResolver()
	return app, nil
}

// Start warms and starts the resolver, then the periodic stats log
func (app *App) Start(ctx context.Context) error {
	if err := app.Resolver.Start(ctx); err != nil {
		return err
	}
	return app.startStatsLog()
}

// Shutdown stops the stats log and settles everything the resolver still holds
func (app *App) Shutdown(ctx context.Context) error {
	if app.scheduler != nil {
		<-app.scheduler.Stop().Done()
	}

	if err := app.Resolver.Stop(ctx); err != nil {
		app.Logger.Warn("Error stopping enchantment resolver", logging.Err(err))
		return err
	}
	app.Logger.Info("Enchantment resolver stopped")
	return nil
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			app.Logger.Warn("Error closing durable store", logging.Err(err))
		}
	}
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
