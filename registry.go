// FILE: monoview/trace/registry.go
package trace

import (
	"reflect"
	"slices"
	"sync"

	"github.com/monoview/trace/sink"
)

// sinkRegistry is the ordered set of destinations. Producers and the worker
// read it concurrently; AddStream and RemoveStream take the write lock.
type sinkRegistry struct {
	mu    sync.RWMutex
	sinks []sink.Sink
}

// add appends s unless it is already present
func (r *sinkRegistry) add(s sink.Sink) error {
	if s == nil {
		return ErrNilSink
	}
	// Identity is interface equality, which panics on non-comparable dynamic types
	if !reflect.TypeOf(s).Comparable() {
		return ErrSinkNotComparable
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.Contains(r.sinks, s) {
		return nil
	}
	r.sinks = append(r.sinks, s)
	return nil
}

// remove deletes s, keeping the order of the others
func (r *sinkRegistry) remove(s sink.Sink) error {
	if s == nil {
		return ErrNilSink
	}
	if !reflect.TypeOf(s).Comparable() {
		return ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	idx := slices.Index(r.sinks, s)
	if idx < 0 {
		return ErrNotFound
	}
	r.sinks = slices.Delete(r.sinks, idx, idx+1)
	return nil
}

func (r *sinkRegistry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}

// each calls fn for every sink in insertion order under the read lock
func (r *sinkRegistry) each(fn func(sink.Sink)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sinks {
		fn(s)
	}
}

// flush flushes every sink, joining failures
func (r *sinkRegistry) flush() error {
	var err error
	r.each(func(s sink.Sink) {
		if ferr := s.Flush(); ferr != nil {
			err = combineErrors(err, ferr)
		}
	})
	return err
}
