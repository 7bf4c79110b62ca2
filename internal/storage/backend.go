package storage

import (
	"fmt"
	"sync"

	"enchantment-resolver/internal/common/errors"
	"enchantment-resolver/internal/config"
)

// Backend names a durable store implementation; values are DATABASE_TYPE values
type Backend string

const (
	BackendSQLite   Backend = config.DatabaseSQLite
	BackendPostgres Backend = config.DatabasePostgres
	BackendNone     Backend = config.DatabaseNone
)

// Opener builds a backend's store from the application config
type Opener func(cfg *config.Config) (Store, error)

var (
	openersMu sync.RWMutex
	openers   = map[Backend]Opener{}
)

// RegisterBackend makes a backend available to Open. The sqlite and postgres packages
// call it from init, so the binary must import them for their side effect.
func RegisterBackend(backend Backend, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[backend] = open
}

// Open creates the store selected by cfg.DatabaseType. BackendNone needs no registration.
func Open(cfg *config.Config) (Store, error) {
	backend := Backend(cfg.DatabaseType)

	switch backend {
	case BackendNone:
		return NoopStore{}, nil
	case BackendSQLite, BackendPostgres:
	default:
		return nil, errors.ConfigError(fmt.Sprintf("unsupported database type: %s", cfg.DatabaseType))
	}

	openersMu.RLock()
	open, ok := openers[backend]
	openersMu.RUnlock()
	if !ok {
		return nil, errors.StorageError(fmt.Sprintf("%s backend is not linked into this binary", backend), nil)
	}

	store, err := open(cfg)
	if err != nil {
		return nil, errors.StorageError("failed to open durable store", err).
			WithContext("backend", string(backend))
	}
	return store, nil
}
