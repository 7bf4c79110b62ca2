package enchantments

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"enchantment-resolver/internal/common/errors"
	"enchantment-resolver/internal/cooldown"
	"enchantment-resolver/internal/storage"
)

// fakeFetcher records calls per key and answers through fn
type fakeFetcher struct {
	mu     sync.Mutex
	calls  map[int]int
	starts []time.Time

	delay time.Duration
	fn    func(key, call int) (*Extraction, error)

	active    int32
	maxActive int32
}

func newFakeFetcher(fn func(key, call int) (*Extraction, error)) *fakeFetcher {
	return &fakeFetcher{calls: make(map[int]int), fn: fn}
}

func (f *fakeFetcher) Fetch(ctx context.Context, key int) (*Extraction, error) {
	current := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		max := atomic.LoadInt32(&f.maxActive)
		if current <= max || atomic.CompareAndSwapInt32(&f.maxActive, max, current) {
			break
		}
	}

	f.mu.Lock()
	f.calls[key]++
	call := f.calls[key]
	f.starts = append(f.starts, time.Now())
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, errors.TimeoutError("fetch", ctx.Err())
		}
	}

	if f.fn == nil {
		return &Extraction{ItemID: key * 10, Name: fmt.Sprintf("Item %d", key), Category: CategoryEnchant}, nil
	}
	return f.fn(key, call)
}

func (f *fakeFetcher) Calls(key int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeFetcher) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeFetcher) Starts() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.starts...)
}

func (f *fakeFetcher) MaxActive() int {
	return int(atomic.LoadInt32(&f.maxActive))
}

// fakeStore is an in-memory storage.Store with injectable failures
type fakeStore struct {
	mu        sync.Mutex
	records   []storage.Record
	upserts   []storage.Record
	loadErr   error
	upsertErr error
}

func (s *fakeStore) LoadRecent(context.Context, time.Duration) ([]storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]storage.Record(nil), s.records...), nil
}

func (s *fakeStore) Upsert(_ context.Context, rec storage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts = append(s.upserts, rec)
	return nil
}

func (s *fakeStore) Health(context.Context) error { return nil }

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) Upserts() []storage.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]storage.Record(nil), s.upserts...)
}

func testOptions() Options {
	return Options{
		CacheTTL:      time.Hour,
		MaxConcurrent: 3,
		MinInterval:   0,
		MaxRetries:    3,
		RetryBase:     time.Millisecond,
		FetchTimeout:  time.Second,
	}
}

// startService starts a service and stops it when the test ends
func startService(t *testing.T, opts Options, fetcher Fetcher, store storage.Store, tracker cooldown.Tracker) *Service {
	t.Helper()
	svc := NewService(opts, fetcher, store, tracker, nil)
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Stop(ctx)
	})
	return svc
}

func stopService(t *testing.T, svc *Service) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(ctx))
}

func intPtr(v int) *int { return &v }
