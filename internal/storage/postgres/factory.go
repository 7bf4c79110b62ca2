package postgres

import (
	"fmt"
	"strconv"

	"enchantment-resolver/internal/config"
	"enchantment-resolver/internal/storage"
)

// open maps the application config onto a PostgreSQL adapter
func open(cfg *config.Config) (storage.Store, error) {
	pgConfig, err := configFromApp(cfg)
	if err != nil {
		return nil, err
	}
	return NewAdapter(pgConfig)
}

func configFromApp(cfg *config.Config) (*Config, error) {
	port := 5432
	if cfg.PostgresPort != "" {
		parsed, err := strconv.Atoi(cfg.PostgresPort)
		if err != nil {
			return nil, fmt.Errorf("invalid PostgreSQL port: %s", cfg.PostgresPort)
		}
		port = parsed
	}

	return &Config{
		Host:     cfg.PostgresHost,
		Port:     port,
		Database: cfg.PostgresDB,
		Username: cfg.PostgresUser,
		Password: cfg.PostgresPassword,
		SSLMode:  cfg.PostgresSSLMode,
	}, nil
}

func init() {
	storage.RegisterBackend(storage.BackendPostgres, open)
}
