package sqlite

import (
	"enchantment-resolver/internal/config"
	"enchantment-resolver/internal/storage"
)

// open maps the application config onto an SQLite adapter
func open(cfg *config.Config) (storage.Store, error) {
	return NewAdapter(&Config{DatabasePath: cfg.DatabasePath})
}

func init() {
	storage.RegisterBackend(storage.BackendSQLite, open)
}
