package app

import (
	"enchantment-resolver/internal/common/logging"
	"enchantment-resolver/internal/config"
	"enchantment-resolver/internal/storage"
	_ "enchantment-resolver/internal/storage/postgres"
	_ "enchantment-resolver/internal/storage/sqlite"
)

// initializeStorage never fails: an unreachable store degrades to memory-only resolution
func (app *App) initializeStorage() {
	if app.Config.ResolverProfile == config.ProfileSimple {
		app.Logger.Info("Database: disabled by the simple resolver profile")
		app.Store = storage.NoopStore{}
		return
	}

	switch app.Config.DatabaseType {
	case config.DatabasePostgres:
		app.Logger.Info("Database: PostgreSQL",
			logging.Field{Key: "host", Value: app.Config.PostgresHost},
			logging.Field{Key: "port", Value: app.Config.PostgresPort},
			logging.Field{Key: "database", Value: app.Config.PostgresDB},
		)
	case config.DatabaseSQLite:
		app.Logger.Info("Database: SQLite", logging.Field{Key: "path", Value: app.Config.DatabasePath})
	default:
		app.Logger.Info("Database: none, resolutions are kept in memory only")
	}

	store, err := storage.Open(app.Config)
	if err != nil {
		// the resolver still works from memory, only cross-restart persistence is lost
		app.Logger.Warn("Durable store unavailable, continuing without persistence",
			logging.Err(err),
			logging.String("type", app.Config.DatabaseType),
		)
		app.Store = storage.UnavailableStore{Err: err}
		return
	}
	app.Store = store
}
