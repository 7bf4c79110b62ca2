package app

import (
	"enchantment-resolver/internal/circuitbreaker"
	"enchantment-resolver/internal/common/logging"
	"enchantment-resolver/internal/config"
	"enchantment-resolver/internal/cooldown"
	"enchantment-resolver/internal/enchantments"
	"enchantment-resolver/internal/fetcher"
)

func (app *App) initializeCooldown() {
	penalty := app.Config.Resolver().CooldownPenalty
	if app.RedisClient != nil {
		app.Cooldown = cooldown.NewRedisTracker(app.RedisClient, penalty, logging.Component("cooldown"))
		return
	}
	app.Cooldown = cooldown.NewLocalTracker(penalty)
}

func (app *App) initializeBreaker() {
	if !app.Config.Resolver().CircuitBreaker {
		app.Logger.Info("Circuit Breaker: Disabled")
		return
	}
	app.Breaker = circuitbreaker.NewGoBreaker("enchantment-source", circuitbreaker.DefaultConfig(), logging.Component("circuitbreaker"))
	app.Logger.Info("Circuit Breaker: Enabled")
}

func (app *App) initializeFetcher() error {
	settings := app.Config.Resolver()

	cfg := fetcher.DefaultConfig(settings.SourceURL)
	if len(settings.UserAgents) > 0 {
		cfg.UserAgents = settings.UserAgents
	}
	cfg.Timeout = settings.FetchTimeout

	// a nil *GoBreakerAdapter must not reach the interface
	var breaker fetcher.Breaker
	if app.Breaker != nil {
		breaker = app.Breaker
	}

	f, err := fetcher.New(cfg, app.Cooldown, breaker, logging.Component("fetcher"))
	if err != nil {
		return err
	}
	app.Fetcher = f
	return nil
}

func (app *App) initializeResolver() {
	settings := app.Config.Resolver()

	opts := enchantments.DefaultOptions()
	if settings.Profile == config.ProfileSimple {
		opts = enchantments.SimpleOptions()
	} else {
		opts.MaxRetries = settings.MaxRetries
	}
	opts.CacheTTL = settings.CacheTTL
	opts.MaxConcurrent = settings.MaxConcurrent
	opts.MinInterval = settings.MinInterval
	opts.RetryBase = settings.RetryBase
	opts.FetchTimeout = settings.FetchTimeout

	app.Resolver = enchantments.NewService(opts, app.Fetcher, app.Store, app.Cooldown, logging.Component("enchantments"))
	app.Logger.Info("Enchantment resolver configured",
		logging.String("profile", settings.Profile),
		logging.String("source", settings.SourceURL),
	)
}
