// FILE: monoview/trace/state.go
package trace

import (
	"sync/atomic"
	"time"
)

// State encapsulates the runtime state of the tracer
type State struct {
	ShutdownCalled atomic.Bool

	// Record counters
	Submitted  atomic.Uint64 // Records that passed the threshold
	Dispatched atomic.Uint64 // Records written to the registry
	Dropped    atomic.Uint64 // Async records refused at push (stopped or over max_pending)
	Discarded  atomic.Uint64 // Async records freed unwritten by Stop
	Truncated  atomic.Uint64 // Records cut to the line capacity
	SinkErrors atomic.Uint64 // Failed sink writes and flushes
	Batches    atomic.Uint64 // Non-empty drains by the worker

	// Heartbeat statistics
	HeartbeatSequence atomic.Uint64 // Counter for heartbeat sequence numbers
	TracerStartTime   atomic.Value  // Stores time.Time for uptime calculation
}

// Stats is a point-in-time copy of the tracer counters
type Stats struct {
	Submitted  uint64
	Dispatched uint64
	Dropped    uint64
	Discarded  uint64
	Truncated  uint64
	SinkErrors uint64
	Batches    uint64
	Pending    int64
	Uptime     time.Duration
}

// Stats returns a snapshot of the counters
func (t *Tracer) Stats() Stats {
	s := Stats{
		Submitted:  t.state.Submitted.Load(),
		Dispatched: t.state.Dispatched.Load(),
		Dropped:    t.state.Dropped.Load(),
		Discarded:  t.state.Discarded.Load(),
		Truncated:  t.state.Truncated.Load(),
		SinkErrors: t.state.SinkErrors.Load(),
		Batches:    t.state.Batches.Load(),
		Pending:    t.dispatcher.pending(),
	}
	if start, ok := t.state.TracerStartTime.Load().(time.Time); ok && !start.IsZero() {
		s.Uptime = time.Since(start)
	}
	return s
}

// Shutdown drains pending records, stops the worker and closes sinks the
// tracer opened itself. Trace calls after Shutdown are no-ops.
// If no timeout is provided, a default of one second is used.
func (t *Tracer) Shutdown(timeout ...time.Duration) error {
	if !t.state.ShutdownCalled.CompareAndSwap(false, true) {
		return nil
	}

	effectiveTimeout := time.Second
	if len(timeout) > 0 && timeout[0] > 0 {
		effectiveTimeout = timeout[0]
	}

	t.stopHeartbeat()

	var finalErr error
	if t.dispatcher.running() {
		if err := t.dispatcher.flush(effectiveTimeout); err != nil {
			finalErr = combineErrors(finalErr, fmtErrorf("failed to drain pending records during shutdown: %w", err))
		}
	}
	if err := t.dispatcher.stop(); err != nil {
		finalErr = combineErrors(finalErr, err)
	}

	t.initMu.Lock()
	owned := t.owned
	t.owned = nil
	t.initMu.Unlock()

	for _, s := range owned {
		_ = t.registry.remove(s)
		if err := s.Flush(); err != nil {
			finalErr = combineErrors(finalErr, fmtErrorf("failed to flush sink during shutdown: %w", err))
		}
		if closer, ok := s.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				finalErr = combineErrors(finalErr, fmtErrorf("failed to close sink during shutdown: %w", err))
			}
		}
	}

	return finalErr
}

// Flush blocks until every record submitted before the call has been written
// and all sinks flushed, or until timeout elapses.
func (t *Tracer) Flush(timeout time.Duration) error {
	if t.state.ShutdownCalled.Load() {
		return ErrShutdown
	}
	return t.dispatcher.flush(timeout)
}
