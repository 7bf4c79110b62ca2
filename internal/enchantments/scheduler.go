package enchantments

import (
	"context"
	"time"

	"enchantment-resolver/internal/common/errors"
	"enchantment-resolver/internal/common/logging"
	"enchantment-resolver/internal/metrics"
)

// run is the dispatch loop. Each iteration takes a worker slot, waits for a ready item,
// passes the shared rate gate and hands the item to a worker goroutine.
func (s *Service) run(ctx context.Context) {
	defer close(s.loopDone)

	for {
		if err := s.slots.Acquire(ctx, 1); err != nil {
			return
		}

		item, ok := s.next(ctx)
		if !ok {
			s.slots.Release(1)
			return
		}

		// a blocked attempt makes no request, so it does not spend the rate budget
		_, blocked := s.cooldown.ActiveUntil(ctx)
		if !blocked {
			if err := s.gate.Wait(ctx); err != nil {
				s.queue.PushFront(item)
				s.slots.Release(1)
				return
			}
		}

		s.workers.Add(1)
		metrics.ActiveWorkersGauge.Inc()
		go func() {
			defer func() {
				metrics.ActiveWorkersGauge.Dec()
				s.slots.Release(1)
				s.workers.Done()
			}()
			s.process(item, blocked)
		}()
	}
}

// next waits until an item is ready, promoting delayed retries whose backoff elapsed
func (s *Service) next(ctx context.Context) (*QueueItem, bool) {
	for {
		s.queue.Promote(time.Now())
		if item, ok := s.queue.Pop(); ok {
			s.observeQueue()
			return item, true
		}

		var timer *time.Timer
		var due <-chan time.Time
		if at, ok := s.queue.NextReadyAt(); ok {
			timer = time.NewTimer(time.Until(at))
			due = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil, false
		case <-s.queue.Notify():
		case <-due:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

// process runs one attempt for item and applies the retry policy to its result
func (s *Service) process(item *QueueItem, blocked bool) {
	logger := s.logger.WithFields(logging.Int("key", item.Key), logging.Int("attempt", item.Attempt))

	var (
		extraction *Extraction
		err        error
	)
	if blocked {
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeBlocked).Inc()
		err = errors.RateLimitError("enchantment source").WithContext("reason", "cooldown active")
	} else {
		ctx, cancel := context.WithTimeout(s.workerCtx, s.opts.FetchTimeout)
		start := time.Now()
		extraction, err = s.fetcher.Fetch(ctx, item.Key)
		metrics.FetchDurationSeconds.Observe(time.Since(start).Seconds())
		cancel()
	}

	switch {
	case err == nil && extraction != nil:
		res := Resolution{
			Key:      item.Key,
			ItemID:   &extraction.ItemID,
			Name:     extraction.Name,
			Category: extraction.Category,
		}
		if res.Name == "" {
			res.Name = PlaceholderName(item.Key)
		}
		s.cache.Set(res)
		s.finish(item, res)
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
		logger.Debug("enchantment resolved",
			logging.Int("item_id", extraction.ItemID),
			logging.String("name", res.Name),
			logging.String("category", string(res.Category)))

	case err == nil:
		res := Fallback(item.Key)
		s.cache.Set(res)
		s.finish(item, res)
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeEmpty).Inc()
		logger.Info("no item found for enchantment, caching fallback")

	case s.retry.ShouldRetry(item.Attempt, err):
		var remaining time.Duration
		if until, active := s.cooldown.ActiveUntil(s.workerCtx); active {
			remaining = time.Until(until)
		}
		delay := s.retry.Delay(item.Attempt, remaining)
		item.Attempt++
		s.queue.RequeueAfter(item, time.Now().Add(delay))
		s.observeQueue()
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeRetry).Inc()
		logger.Warn("enchantment fetch failed, retry scheduled",
			logging.Err(err), logging.Duration("delay", delay))

	case errors.IsRecoverable(err):
		s.finish(item, Fallback(item.Key))
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeExhausted).Inc()
		logger.Warn("enchantment retries exhausted, returning fallback", logging.Err(err))

	default:
		s.finish(item, Fallback(item.Key))
		metrics.FetchTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		logger.Error("enchantment fetch failed", err)
	}
}
