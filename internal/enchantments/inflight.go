package enchantments

import (
	"context"
	"sync"
)

// Future is the single outcome shared by every caller waiting on one key. It can only be
// settled with a value; there is no failure path.
type Future struct {
	done   chan struct{}
	once   sync.Once
	result Resolution
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// settle stores res and releases all waiters. Later calls are ignored.
func (f *Future) settle(res Resolution) bool {
	settled := false
	f.once.Do(func() {
		f.result = res
		close(f.done)
		settled = true
	})
	return settled
}

// Done is closed once the future is settled
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles or ctx ends
func (f *Future) Wait(ctx context.Context) (Resolution, error) {
	select {
	case <-f.done:
		return f.result.Clone(), nil
	case <-ctx.Done():
		return Resolution{}, ctx.Err()
	}
}

// inflightRegistry holds one Future per key being resolved
type inflightRegistry struct {
	mu      sync.Mutex
	pending map[int]*Future
}

func newInflightRegistry() *inflightRegistry {
	return &inflightRegistry{pending: make(map[int]*Future)}
}

// tryRegister returns the pending future for key, creating it when absent. isNew is true
// only for the caller that created it; that caller owns dispatching the key.
func (r *inflightRegistry) tryRegister(key int) (f *Future, isNew bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.pending[key]; ok {
		return existing, false
	}
	f = newFuture()
	r.pending[key] = f
	return f, true
}

// complete removes key and settles its future with res
func (r *inflightRegistry) complete(key int, res Resolution) {
	r.mu.Lock()
	f, ok := r.pending[key]
	delete(r.pending, key)
	r.mu.Unlock()

	if ok {
		f.settle(res)
	}
}

func (r *inflightRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
