// FILE: monoview/trace/dispatch.go
package trace

import (
	"sync"
	"sync/atomic"
	"time"
)

// dispatcher is the delivery strategy chosen at construction
type dispatcher interface {
	// dispatch takes ownership of rec
	dispatch(rec *logRecord)
	start() error
	stop() error
	flush(timeout time.Duration) error
	running() bool
	pending() int64
}

func newDispatcher(t *Tracer, mode Mode) dispatcher {
	if mode == ModeSync {
		return &syncDispatcher{t: t}
	}
	return newAsyncDispatcher(t)
}

// syncDispatcher writes on the calling goroutine. One mutex serializes all
// producers so bytes of two records never interleave within a sink.
type syncDispatcher struct {
	t       *Tracer
	mu      sync.Mutex
	scratch []byte
}

func (d *syncDispatcher) dispatch(rec *logRecord) {
	d.mu.Lock()
	d.t.writeRecord(rec, &d.scratch)
	d.mu.Unlock()
	d.t.releaseRecord(rec)
}

func (d *syncDispatcher) start() error { return nil }

func (d *syncDispatcher) stop() error { return nil }

func (d *syncDispatcher) flush(time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.t.registry.flush()
}

func (d *syncDispatcher) running() bool { return true }

func (d *syncDispatcher) pending() int64 { return 0 }

// asyncDispatcher pushes records onto a lock-free stack drained by a single worker
type asyncDispatcher struct {
	t *Tracer

	head    atomic.Pointer[logRecord]
	count   atomic.Int64 // Records on the stack
	active  atomic.Bool
	wake    chan struct{}
	flushCh chan chan struct{}

	mu      sync.Mutex // Serializes start, stop and late discards
	quit    chan struct{}
	done    chan struct{}
	flushMu sync.Mutex
	scratch []byte // Owned by the worker
}

func newAsyncDispatcher(t *Tracer) *asyncDispatcher {
	return &asyncDispatcher{
		t:       t,
		wake:    make(chan struct{}, 1),
		flushCh: make(chan chan struct{}, 1),
	}
}

// dispatch pushes rec and signals the worker. It never blocks.
func (d *asyncDispatcher) dispatch(rec *logRecord) {
	if !d.active.Load() {
		d.drop(rec)
		return
	}
	if limit := d.t.maxPending.Load(); limit > 0 && d.count.Load() >= limit {
		d.drop(rec)
		return
	}

	d.count.Add(1)
	for {
		next := d.head.Load()
		rec.next = next
		if d.head.CompareAndSwap(next, rec) {
			break
		}
	}

	// A stop that ran between the active check and the push has already
	// swept the stack; free what was left behind so nothing stays pending
	if !d.active.Load() {
		d.mu.Lock()
		if !d.active.Load() {
			d.discard()
		}
		d.mu.Unlock()
		return
	}

	select {
	case d.wake <- struct{}{}:
	default: // Worker already has a pending wake-up
	}
}

func (d *asyncDispatcher) drop(rec *logRecord) {
	d.t.state.Dropped.Add(1)
	d.t.releaseRecord(rec)
}

// start spawns the worker. No-op if it is already running.
func (d *asyncDispatcher) start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active.Load() {
		return nil
	}
	d.quit = make(chan struct{})
	d.done = make(chan struct{})
	d.active.Store(true)
	go d.t.runWorker(d, d.quit, d.done)
	return nil
}

// stop clears the running flag, wakes and joins the worker, then frees every
// record still on the stack without writing it
func (d *asyncDispatcher) stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active.CompareAndSwap(true, false) {
		return nil
	}
	close(d.quit)
	<-d.done

	d.discard()
	return nil
}

// discard frees every record on the stack without writing it. Callers hold mu
// with the dispatcher stopped.
func (d *asyncDispatcher) discard() {
	discarded := 0
	for rec := d.claim(); rec != nil; {
		next := rec.next
		d.t.releaseRecord(rec)
		rec = next
		discarded++
	}
	d.t.state.Discarded.Add(uint64(discarded))
}

// flush asks the worker to deliver everything pushed so far and flush the sinks
func (d *asyncDispatcher) flush(timeout time.Duration) error {
	d.flushMu.Lock()
	defer d.flushMu.Unlock()

	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if !d.active.Load() {
		return fmtErrorf("tracer not started")
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	confirmChan := make(chan struct{})
	select {
	case d.flushCh <- confirmChan:
		// Request sent
	case <-done:
		return fmtErrorf("worker exited before flush request was taken")
	case <-timer.C:
		return fmtErrorf("failed to send flush request to worker within %v", timeout)
	}

	select {
	case <-confirmChan:
		return nil
	case <-done:
		return fmtErrorf("worker exited before flush completed")
	case <-timer.C:
		return fmtErrorf("timeout waiting for flush confirmation (%v)", timeout)
	}
}

func (d *asyncDispatcher) running() bool {
	return d.active.Load()
}

func (d *asyncDispatcher) pending() int64 {
	return d.count.Load()
}

// claim takes the whole stack in one step, most recent record first
func (d *asyncDispatcher) claim() *logRecord {
	batch := d.head.Swap(nil)
	if batch == nil {
		return nil
	}
	n := int64(0)
	for rec := batch; rec != nil; rec = rec.next {
		n++
	}
	d.count.Add(-n)
	return batch
}
