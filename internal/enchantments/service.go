package enchantments

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"enchantment-resolver/internal/common/errors"
	"enchantment-resolver/internal/common/logging"
	"enchantment-resolver/internal/cooldown"
	"enchantment-resolver/internal/metrics"
	"enchantment-resolver/internal/storage"
)

type serviceState int

const (
	stateNew serviceState = iota
	stateRunning
	stateStopped
)

// Service is the resolver facade. Create it with NewService, call Start before serving
// and Stop on shutdown.
type Service struct {
	opts     Options
	fetcher  Fetcher
	store    storage.Store
	cooldown cooldown.Tracker
	retry    RetryPolicy
	logger   logging.Logger

	cache     *Cache
	persister *persister
	inflight  *inflightRegistry
	queue     *DispatchQueue
	slots     *semaphore.Weighted
	gate      *rate.Limiter

	mu            sync.RWMutex
	state         serviceState
	cancelLoop    context.CancelFunc
	loopDone      chan struct{}
	workerCtx     context.Context
	cancelWorkers context.CancelFunc
	workers       sync.WaitGroup
}

// NewService wires a resolver. A nil store disables persistence, a nil tracker uses a
// process-local cooldown and a nil logger uses the global one.
func NewService(opts Options, fetcher Fetcher, store storage.Store, tracker cooldown.Tracker, logger logging.Logger) *Service {
	opts = opts.withDefaults()
	if store == nil {
		store = storage.NoopStore{}
	}
	if tracker == nil {
		tracker = cooldown.NewLocalTracker(cooldown.DefaultPenalty)
	}
	if logger == nil {
		logger = logging.Component("enchantments")
	}

	p := newPersister(store, opts.PersistBuffer, opts.PersistTimeout, logger)
	workerCtx, cancelWorkers := context.WithCancel(context.Background())

	return &Service{
		opts:          opts,
		fetcher:       fetcher,
		store:         store,
		cooldown:      tracker,
		retry:         RetryPolicy{MaxRetries: opts.MaxRetries, Base: opts.RetryBase},
		logger:        logger,
		cache:         newCache(opts.CacheTTL, p),
		persister:     p,
		inflight:      newInflightRegistry(),
		queue:         NewDispatchQueue(),
		slots:         semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		gate:          rate.NewLimiter(rate.Every(opts.MinInterval), 1),
		loopDone:      make(chan struct{}),
		workerCtx:     workerCtx,
		cancelWorkers: cancelWorkers,
	}
}

// Start seeds the memory cache from the durable store and starts the dispatcher.
// A store failure is logged and the service starts with an empty cache.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateNew {
		return errors.InternalError("enchantment service already started", nil)
	}

	s.warmCache(ctx)
	s.persister.start()

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancelLoop = cancel
	s.state = stateRunning
	go s.run(loopCtx)

	s.logger.Info("enchantment service started",
		logging.Int("cached", s.cache.Len()),
		logging.Int("max_concurrent", s.opts.MaxConcurrent),
		logging.Duration("min_interval", s.opts.MinInterval),
		logging.Int("max_retries", s.opts.MaxRetries))
	return nil
}

func (s *Service) warmCache(ctx context.Context) {
	loadCtx, cancel := context.WithTimeout(ctx, s.opts.LoadTimeout)
	defer cancel()

	records, err := s.store.LoadRecent(loadCtx, s.opts.CacheTTL)
	if err != nil {
		s.logger.Error("failed to load persisted enchantments, starting with an empty cache", err)
		return
	}
	for _, rec := range records {
		s.cache.Load(resolutionFromRecord(rec), rec.UpdatedAt)
	}
}

func resolutionFromRecord(rec storage.Record) Resolution {
	return Resolution{
		Key:      rec.EnchantID,
		ItemID:   rec.ItemID,
		Name:     rec.Name,
		Category: ParseCategory(rec.Category),
	}
}

// Stop ends dispatching, waits for running fetches until ctx expires, settles every
// queued key with its fallback and flushes pending durable writes.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	prev := s.state
	s.state = stateStopped
	s.mu.Unlock()

	if prev == stateStopped {
		return nil
	}

	if prev == stateRunning {
		s.cancelLoop()
		<-s.loopDone
	}

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()
	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
		s.cancelWorkers()
		<-done
	}
	s.cancelWorkers()

	drained := s.queue.Drain()
	for _, item := range drained {
		s.finish(item, Fallback(item.Key))
	}
	s.observeQueue()
	if len(drained) > 0 {
		s.logger.Warn("settled queued enchantments with fallback on shutdown", logging.Int("count", len(drained)))
	}

	s.persister.stop()
	s.logger.Info("enchantment service stopped")
	return err
}

// Resolve returns the resolution for key. It never fails: invalid keys yield Unknown and
// unresolvable ones the "Enchantment {key}" fallback. If ctx ends first the fallback is
// returned while the key keeps resolving in the background.
func (s *Service) Resolve(ctx context.Context, key int) Resolution {
	if key < 1 {
		return Unknown(key)
	}

	if res, ok := s.fresh(key); ok {
		metrics.CacheHitsTotal.Inc()
		return res
	}

	future, isNew := s.inflight.tryRegister(key)
	if isNew {
		// a worker may have filled the cache between the check above and registering
		if res, ok := s.fresh(key); ok {
			s.inflight.complete(key, res)
			metrics.CacheHitsTotal.Inc()
			return res
		}
		metrics.CacheMissesTotal.Inc()
		metrics.InFlightGauge.Set(float64(s.inflight.len()))
		s.enqueue(&QueueItem{Key: key})
	} else {
		metrics.SharedTotal.Inc()
	}

	res, err := future.Wait(ctx)
	if err != nil {
		s.logger.Debug("caller stopped waiting, returning fallback", logging.Int("key", key), logging.Err(err))
		return Fallback(key)
	}
	return res
}

// ResolveMultiple resolves the distinct positive keys concurrently and returns one
// Resolution per key in first-seen order. Keys settle independently.
func (s *Service) ResolveMultiple(ctx context.Context, keys []int) []Resolution {
	unique := lo.Uniq(lo.Filter(keys, func(key int, _ int) bool {
		return key > 0
	}))

	results := make([]Resolution, len(unique))
	var g errgroup.Group
	for i, key := range unique {
		i, key := i, key
		g.Go(func() error {
			results[i] = s.Resolve(ctx, key)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// GetCacheStats reports cache size, unsettled keys, queued work and the cooldown end
func (s *Service) GetCacheStats(ctx context.Context) CacheStats {
	stats := CacheStats{
		Size:          s.cache.Len(),
		InFlightCount: s.inflight.len(),
		QueueDepth:    s.queue.Depth(),
	}
	if until, active := s.cooldown.ActiveUntil(ctx); active {
		stats.CooldownActiveUntil = &until
	}
	return stats
}

// ClearCache empties the memory cache. Durable records are kept.
func (s *Service) ClearCache() {
	s.cache.Clear()
	s.logger.Info("enchantment memory cache cleared")
}

func (s *Service) fresh(key int) (Resolution, bool) {
	entry, ok := s.cache.Get(key)
	if !ok || !entry.Fresh(time.Now()) {
		return Resolution{}, false
	}
	return entry.Resolution.Clone(), true
}

func (s *Service) enqueue(item *QueueItem) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == stateStopped {
		s.finish(item, Fallback(item.Key))
		return
	}
	s.queue.Push(item)
	s.observeQueue()
}

// finish settles every waiter of item's key
func (s *Service) finish(item *QueueItem, res Resolution) {
	s.inflight.complete(item.Key, res)
	metrics.InFlightGauge.Set(float64(s.inflight.len()))
}

func (s *Service) observeQueue() {
	metrics.QueueDepthGauge.Set(float64(s.queue.Depth()))
}
