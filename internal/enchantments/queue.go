package enchantments

import (
	"container/list"
	"sort"
	"sync"
	"time"
)

// QueueItem is one key waiting for a worker. Attempt counts retries already made.
type QueueItem struct {
	Key     int
	Attempt int
	ReadyAt time.Time
}

// DispatchQueue is a FIFO of ready items plus a set of delayed retries. Delayed items
// become ready through Promote, which puts them at the front so started resolutions
// finish before new keys are served.
type DispatchQueue struct {
	mu      sync.Mutex
	ready   *list.List
	delayed []*QueueItem // ordered by ReadyAt
	notify  chan struct{}
}

func NewDispatchQueue() *DispatchQueue {
	return &DispatchQueue{
		ready:  list.New(),
		notify: make(chan struct{}, 1),
	}
}

// Push appends item to the ready list
func (q *DispatchQueue) Push(item *QueueItem) {
	q.mu.Lock()
	q.ready.PushBack(item)
	q.mu.Unlock()
	q.signal()
}

// PushFront puts item ahead of everything that is ready
func (q *DispatchQueue) PushFront(item *QueueItem) {
	q.mu.Lock()
	q.ready.PushFront(item)
	q.mu.Unlock()
	q.signal()
}

// RequeueAfter parks item until readyAt
func (q *DispatchQueue) RequeueAfter(item *QueueItem, readyAt time.Time) {
	item.ReadyAt = readyAt
	q.mu.Lock()
	i := sort.Search(len(q.delayed), func(i int) bool {
		return q.delayed[i].ReadyAt.After(readyAt)
	})
	q.delayed = append(q.delayed, nil)
	copy(q.delayed[i+1:], q.delayed[i:])
	q.delayed[i] = item
	q.mu.Unlock()
	q.signal()
}

// Promote moves every delayed item due at now to the front of the ready list, the
// earliest due first, and returns how many moved
func (q *DispatchQueue) Promote(now time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := sort.Search(len(q.delayed), func(i int) bool {
		return q.delayed[i].ReadyAt.After(now)
	})
	for i := n - 1; i >= 0; i-- {
		q.ready.PushFront(q.delayed[i])
	}
	q.delayed = q.delayed[n:]
	return n
}

// Pop removes the first ready item
func (q *DispatchQueue) Pop() (*QueueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	front := q.ready.Front()
	if front == nil {
		return nil, false
	}
	return q.ready.Remove(front).(*QueueItem), true
}

// NextReadyAt returns when the earliest delayed item becomes due
func (q *DispatchQueue) NextReadyAt() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.delayed) == 0 {
		return time.Time{}, false
	}
	return q.delayed[0].ReadyAt, true
}

// readyLen counts ready items
func (q *DispatchQueue) readyLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ready.Len()
}

// delayedLen counts items waiting out a backoff
func (q *DispatchQueue) delayedLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.delayed)
}

// Depth counts ready and delayed items
func (q *DispatchQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ready.Len() + len(q.delayed)
}

// Notify receives a value after any item is added
func (q *DispatchQueue) Notify() <-chan struct{} {
	return q.notify
}

// Drain empties the queue and returns ready items followed by delayed ones
func (q *DispatchQueue) Drain() []*QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]*QueueItem, 0, q.ready.Len()+len(q.delayed))
	for e := q.ready.Front(); e != nil; e = e.Next() {
		items = append(items, e.Value.(*QueueItem))
	}
	items = append(items, q.delayed...)
	q.ready.Init()
	q.delayed = nil
	return items
}

func (q *DispatchQueue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
