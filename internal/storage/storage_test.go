package storage

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"enchantment-resolver/internal/common/errors"
	"enchantment-resolver/internal/config"
)

// withOpeners swaps the backend table for the duration of a test
func withOpeners(t *testing.T, table map[Backend]Opener) {
	t.Helper()
	openersMu.Lock()
	original := openers
	openers = table
	openersMu.Unlock()
	t.Cleanup(func() {
		openersMu.Lock()
		openers = original
		openersMu.Unlock()
	})
}

func TestOpen(t *testing.T) {
	t.Run("none uses noop store", func(t *testing.T) {
		withOpeners(t, map[Backend]Opener{})
		store, err := Open(&config.Config{DatabaseType: config.DatabaseNone})
		require.NoError(t, err)
		assert.IsType(t, NoopStore{}, store)
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := Open(&config.Config{DatabaseType: "mongo"})
		assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
	})

	t.Run("backend not linked", func(t *testing.T) {
		withOpeners(t, map[Backend]Opener{})
		_, err := Open(&config.Config{DatabaseType: config.DatabaseSQLite, DatabasePath: "x.db"})
		assert.True(t, errors.IsType(err, errors.ErrTypeStorage))
	})

	t.Run("registered backend receives the config", func(t *testing.T) {
		withOpeners(t, map[Backend]Opener{})
		var got *config.Config
		RegisterBackend(BackendPostgres, func(cfg *config.Config) (Store, error) {
			got = cfg
			return NoopStore{}, nil
		})

		cfg := &config.Config{DatabaseType: config.DatabasePostgres, PostgresHost: "db.internal"}
		store, err := Open(cfg)
		require.NoError(t, err)
		assert.IsType(t, NoopStore{}, store)
		assert.Same(t, cfg, got)
	})

	t.Run("open failure is a storage error", func(t *testing.T) {
		withOpeners(t, map[Backend]Opener{})
		RegisterBackend(BackendSQLite, func(*config.Config) (Store, error) {
			return nil, stderrors.New("unable to open database file")
		})

		_, err := Open(&config.Config{DatabaseType: config.DatabaseSQLite})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeStorage))
		assert.Contains(t, err.Error(), "unable to open database file")
	})
}

func TestNoopStore(t *testing.T) {
	ctx := context.Background()
	store := NoopStore{}

	require.NoError(t, store.Upsert(ctx, Record{EnchantID: 1, Name: "x"}))
	records, err := store.LoadRecent(ctx, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, store.Health(ctx))
	assert.NoError(t, store.Close())
}

func TestUnavailableStore(t *testing.T) {
	ctx := context.Background()
	cause := stderrors.New("connection refused")
	store := UnavailableStore{Err: cause}

	require.NoError(t, store.Upsert(ctx, Record{EnchantID: 1, Name: "x"}))
	records, err := store.LoadRecent(ctx, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, cause, store.Health(ctx))
	assert.NoError(t, store.Close())
}
