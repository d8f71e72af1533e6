package sink

import (
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Writer adapts any io.Writer. Flush is forwarded when the writer has a
// Flush() error or Sync() error method and is a no-op otherwise.
type Writer struct {
	mu      sync.Mutex
	w       io.Writer
	colored bool
}

// NewWriter wraps w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WithColor marks the writer as a terminal-like destination
func (w *Writer) WithColor(colored bool) *Writer {
	w.colored = colored
	return w
}

// Colored implements Colorer
func (w *Writer) Colored() bool {
	return w.colored
}

// Write implements Sink
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.w.Write(p)
	return n, errors.Wrap(err, "write")
}

// Flush implements Sink
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch f := w.w.(type) {
	case interface{ Flush() error }:
		return errors.Wrap(f.Flush(), "flush")
	case interface{ Sync() error }:
		return errors.Wrap(f.Sync(), "sync")
	}
	return nil
}
