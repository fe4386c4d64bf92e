package feed

import "sync"

// Buffer is a thread-safe FIFO that doubles its capacity when full, so
// producers never block.
type Buffer[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	head   int
	tail   int
	count  int
	closed bool

	totalIn  int64
	totalOut int64
	resizes  int
}

// NewBuffer creates a buffer with the given initial capacity.
func NewBuffer[T any](initialCapacity int) *Buffer[T] {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	b := &Buffer[T]{items: make([]T, initialCapacity)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Send enqueues an item, growing the buffer if it is full.
// Returns false if the buffer is closed.
func (b *Buffer[T]) Send(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	if b.count == len(b.items) {
		b.grow()
	}

	b.items[b.tail] = item
	b.tail = (b.tail + 1) % len(b.items)
	b.count++
	b.totalIn++

	b.cond.Signal()
	return true
}

// Receive dequeues an item, blocking until one is available or the buffer
// is closed and drained. The second return is false only in the latter case.
func (b *Buffer[T]) Receive() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.count == 0 && !b.closed {
		b.cond.Wait()
	}
	if b.count == 0 {
		var zero T
		return zero, false
	}
	return b.pop(), true
}

// TryReceive dequeues without blocking.
func (b *Buffer[T]) TryReceive() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count == 0 {
		var zero T
		return zero, false
	}
	return b.pop(), true
}

// Close marks the buffer closed. Pending items stay receivable; further
// Sends are rejected.
func (b *Buffer[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.cond.Broadcast()
}

// Len returns the number of buffered items.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Stats describes buffer activity.
type Stats struct {
	Count    int
	Capacity int
	TotalIn  int64
	TotalOut int64
	Resizes  int
}

// Stats returns a snapshot of buffer activity.
func (b *Buffer[T]) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Count:    b.count,
		Capacity: len(b.items),
		TotalIn:  b.totalIn,
		TotalOut: b.totalOut,
		Resizes:  b.resizes,
	}
}

// pop removes the head item. Lock must be held.
func (b *Buffer[T]) pop() T {
	item := b.items[b.head]
	var zero T
	b.items[b.head] = zero // release for GC
	b.head = (b.head + 1) % len(b.items)
	b.count--
	b.totalOut++
	return item
}

// grow doubles capacity, unwrapping the ring. Lock must be held.
func (b *Buffer[T]) grow() {
	next := make([]T, len(b.items)*2)
	if b.count > 0 {
		if b.head < b.tail {
			copy(next, b.items[b.head:b.tail])
		} else {
			n := copy(next, b.items[b.head:])
			copy(next[n:], b.items[:b.tail])
		}
	}
	b.items = next
	b.head = 0
	b.tail = b.count
	b.resizes++
}
