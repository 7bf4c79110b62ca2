package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"enchantment-resolver/internal/common/logging"
)

// startStatsLog schedules logStats on STATS_LOG_SCHEDULE. An empty schedule disables it.
func (app *App) startStatsLog() error {
	if app.Config.StatsLogSchedule == "" {
		return nil
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(app.Config.StatsLogSchedule, app.logStats); err != nil {
		return err
	}
	scheduler.Start()
	app.scheduler = scheduler

	app.Logger.Info("Stats log scheduled", logging.String("schedule", app.Config.StatsLogSchedule))
	return nil
}

func (app *App) logStats() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats := app.Resolver.GetCacheStats(ctx)
	fields := []logging.Field{
		logging.Int("cache_size", stats.Size),
		logging.Int("in_flight", stats.InFlightCount),
		logging.Int("queue_depth", stats.QueueDepth),
	}
	if stats.CooldownActiveUntil != nil {
		fields = append(fields, logging.Time("cooldown_until", *stats.CooldownActiveUntil))
	}
	if app.Breaker != nil {
		breaker := app.Breaker.Stats()
		fields = append(fields,
			logging.String("breaker_state", breaker.State),
			logging.Int("breaker_failures", breaker.Failures),
			logging.Int("breaker_successes", breaker.Successes),
		)
	}
	app.Logger.Info("Enchantment resolver stats", fields...)
}
