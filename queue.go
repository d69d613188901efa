package main

import "sync"

// queue is an unbounded FIFO guarded by one mutex and one condition
// variable. Producers push and notify; the single consumer blocks until
// items arrive, then drains everything in one critical section so the
// producer side is held up as briefly as possible.
type queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	closed bool
}

func newQueue[T any]() *queue[T] {
	q := &queue[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends one item. Pushing to a closed queue is a no-op.
func (q *queue[T]) Push(item T) {
	q.mu.Lock()
	if !q.closed {
		q.items = append(q.items, item)
	}
	q.mu.Unlock()
	q.cond.Signal()
}

// Drain blocks until the queue is non-empty or closed, then returns all
// buffered items. A nil slice with ok=false means the queue is closed and
// fully drained.
func (q *queue[T]) Drain() ([]T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	items := q.items
	q.items = nil
	return items, true
}

// TryDrain returns all buffered items without blocking.
func (q *queue[T]) TryDrain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Len returns the number of buffered items.
func (q *queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close marks the queue closed and wakes every waiter. Items already
// buffered remain drainable.
func (q *queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}
