// Package sink defines the destinations a tracer fans records out to.
//
// A Sink is anything that accepts fully formatted bytes and can flush them.
// The tracer never assumes more than that: no seeking, no file semantics.
// Adapters are provided for the process console, plain files guarded by an
// advisory lock, arbitrary io.Writers, and an in-memory capture buffer.
package sink

import (
	"errors"
)

// ErrClosed is returned by adapters written to after Close
var ErrClosed = errors.New("sink: closed")

// Sink is the write-and-flush capability required by the tracer
type Sink interface {
	Write(p []byte) (int, error)
	Flush() error
}

// Colorer is implemented by sinks that want the level field wrapped in ANSI color codes
type Colorer interface {
	Colored() bool
}

// IsColored reports whether s asks for colored level fields
func IsColored(s Sink) bool {
	if c, ok := s.(Colorer); ok {
		return c.Colored()
	}
	return false
}
