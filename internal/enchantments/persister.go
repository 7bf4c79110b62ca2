package enchantments

import (
	"context"
	"sync"
	"time"

	"enchantment-resolver/internal/common/logging"
	"enchantment-resolver/internal/storage"
)

// persister writes resolutions to the durable store from a single background goroutine.
// Writes are best effort: failures and overflow are logged and dropped.
type persister struct {
	store   storage.Store
	timeout time.Duration
	logger  logging.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan storage.Record
	done   chan struct{}
	once   sync.Once
}

func newPersister(store storage.Store, buffer int, timeout time.Duration, logger logging.Logger) *persister {
	return &persister{
		store:   store,
		timeout: timeout,
		logger:  logger,
		queue:   make(chan storage.Record, buffer),
		done:    make(chan struct{}),
	}
}

func (p *persister) start() {
	p.once.Do(func() {
		go p.loop()
	})
}

func (p *persister) enqueue(res Resolution, fetchedAt time.Time) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Debug("persister stopped, dropping write", logging.Int("key", res.Key))
		return
	}

	rec := storage.Record{
		EnchantID: res.Key,
		ItemID:    res.Clone().ItemID,
		Name:      res.Name,
		Category:  string(res.Category),
		UpdatedAt: fetchedAt,
	}
	select {
	case p.queue <- rec:
	default:
		p.logger.Warn("persist queue full, dropping write", logging.Int("key", res.Key))
	}
}

func (p *persister) loop() {
	defer close(p.done)
	for rec := range p.queue {
		p.write(rec)
	}
}

func (p *persister) write(rec storage.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.store.Upsert(ctx, rec); err != nil {
		p.logger.Error("failed to persist enchantment", err, logging.Int("key", rec.EnchantID))
	}
}

// stop rejects new writes and waits until queued ones are flushed
func (p *persister) stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	// drain here when the loop was never started
	p.start()
	<-p.done
}
