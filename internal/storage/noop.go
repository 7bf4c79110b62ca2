package storage

import (
	"context"
	"time"
)

// NoopStore discards writes and loads nothing. Used by the simple profile and DATABASE_TYPE=none.
type NoopStore struct{}

func (NoopStore) LoadRecent(context.Context, time.Duration) ([]Record, error) {
	return nil, nil
}

func (NoopStore) Upsert(context.Context, Record) error {
	return nil
}

func (NoopStore) Health(context.Context) error {
	return nil
}

func (NoopStore) Close() error {
	return nil
}

// UnavailableStore stands in for a backend that failed to open. The resolver keeps
// working from memory: nothing is loaded, writes are discarded and Health reports Err.
type UnavailableStore struct {
	Err error
}

func (UnavailableStore) LoadRecent(context.Context, time.Duration) ([]Record, error) {
	return nil, nil
}

func (UnavailableStore) Upsert(context.Context, Record) error {
	return nil
}

func (s UnavailableStore) Health(context.Context) error {
	return s.Err
}

func (UnavailableStore) Close() error {
	return nil
}
