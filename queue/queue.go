// FILE: monoview/trace/queue/queue.go
// Package queue provides a fixed-capacity blocking FIFO for handing messages
// between goroutines, for example from a network event loop to a consumer
// that must not be called from that loop.
//
// The ring reserves one slot to tell full from empty, so a queue created with
// capacity n holds at most n-1 messages.
package queue

import (
	"errors"
	"sync"
)

// ErrCapacity is returned by New for capacities that leave no usable slot
var ErrCapacity = errors.New("queue: capacity must be at least 2")

// Message is a generic envelope for heterogeneous hand-off
type Message struct {
	Kind    int
	Payload any
}

// Bounded is a blocking ring buffer. All methods are safe for concurrent use
// until Destroy is called.
type Bounded[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	buf      []T
	head     int
	tail     int
	capacity int
	waiters  int // Goroutines parked in Push or Pop
}

// New allocates a queue with the given ring capacity
func New[T any](capacity int) (*Bounded[T], error) {
	if capacity < 2 {
		return nil, ErrCapacity
	}
	q := &Bounded[T]{
		buf:      make([]T, capacity),
		capacity: capacity,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q, nil
}

// Push appends msg, blocking while the queue is full
func (q *Bounded[T]) Push(msg T) {
	q.mu.Lock()
	for q.fullLocked() {
		q.waiters++
		q.notFull.Wait()
		q.waiters--
	}
	q.buf[q.tail] = msg
	q.tail = (q.tail + 1) % q.capacity
	q.mu.Unlock()
	q.notEmpty.Signal()
}

// Pop removes the oldest message, blocking while the queue is empty
func (q *Bounded[T]) Pop() T {
	q.mu.Lock()
	for q.head == q.tail {
		q.waiters++
		q.notEmpty.Wait()
		q.waiters--
	}
	msg := q.takeLocked()
	q.mu.Unlock()
	q.notFull.Signal()
	return msg
}

// TryPop removes the oldest message if there is one. It never blocks.
func (q *Bounded[T]) TryPop() (T, bool) {
	q.mu.Lock()
	if q.head == q.tail {
		q.mu.Unlock()
		var zero T
		return zero, false
	}
	msg := q.takeLocked()
	q.mu.Unlock()
	q.notFull.Signal()
	return msg, true
}

// Len returns the number of queued messages
func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return (q.tail - q.head + q.capacity) % q.capacity
}

// Cap returns the number of usable slots
func (q *Bounded[T]) Cap() int {
	return q.capacity - 1
}

// Destroy releases the buffer. Queued messages are lost.
// Using the queue afterwards, or destroying it while a goroutine is blocked in it, is a bug.
func (q *Bounded[T]) Destroy() {
	q.mu.Lock()
	q.buf = nil
	q.head, q.tail = 0, 0
	q.mu.Unlock()
}

// waiting reports how many goroutines are parked in Push or Pop
func (q *Bounded[T]) waiting() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.waiters
}

func (q *Bounded[T]) fullLocked() bool {
	return (q.tail+1)%q.capacity == q.head
}

func (q *Bounded[T]) takeLocked() T {
	var zero T
	msg := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % q.capacity
	return msg
}
