package sink

import (
	"bytes"
	"strings"
	"sync"
)

// Buffer captures everything written to it in memory.
// Useful for tests and for collaborators that render records themselves.
type Buffer struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	flushes int
	colored bool
}

// NewBuffer creates an empty capture buffer
func NewBuffer() *Buffer {
	return &Buffer{}
}

// WithColor makes the buffer request colored level fields
func (b *Buffer) WithColor(colored bool) *Buffer {
	b.mu.Lock()
	b.colored = colored
	b.mu.Unlock()
	return b
}

// Colored implements Colorer
func (b *Buffer) Colored() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.colored
}

// Write implements Sink
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Flush implements Sink
func (b *Buffer) Flush() error {
	b.mu.Lock()
	b.flushes++
	b.mu.Unlock()
	return nil
}

// String returns a copy of the captured bytes
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Len returns the number of captured bytes
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

// Lines returns the captured content split on newlines, without the trailing empty line
func (b *Buffer) Lines() []string {
	s := b.String()
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// Flushes returns how many times Flush was called
func (b *Buffer) Flushes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushes
}

// Reset discards captured content
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.buf.Reset()
	b.mu.Unlock()
}
