package sink

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

// Console writes to a process standard stream
type Console struct {
	mu      sync.Mutex
	f       *os.File
	name    string
	colored bool
}

var (
	stdoutOnce sync.Once
	stderrOnce sync.Once
	stdout     *Console
	stderr     *Console
)

// Stdout returns the shared stdout console sink.
// The same handle is returned on every call so registering it twice is a no-op.
func Stdout() *Console {
	stdoutOnce.Do(func() {
		stdout = NewConsole(os.Stdout, "stdout")
	})
	return stdout
}

// Stderr returns the shared stderr console sink
func Stderr() *Console {
	stderrOnce.Do(func() {
		stderr = NewConsole(os.Stderr, "stderr")
	})
	return stderr
}

// NewConsole wraps f, enabling color when f is a terminal and NO_COLOR is unset
func NewConsole(f *os.File, name string) *Console {
	return &Console{
		f:       f,
		name:    name,
		colored: DetectColor(f),
	}
}

// DetectColor reports whether f is a color capable terminal
func DetectColor(f *os.File) bool {
	if f == nil {
		return false
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// SetColored overrides terminal detection
func (c *Console) SetColored(colored bool) *Console {
	c.mu.Lock()
	c.colored = colored
	c.mu.Unlock()
	return c
}

// Colored implements Colorer
func (c *Console) Colored() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.colored
}

// Write implements Sink
func (c *Console) Write(p []byte) (int, error) {
	n, err := c.f.Write(p)
	if err != nil {
		return n, errors.Wrapf(err, "write %s", c.name)
	}
	return n, nil
}

// Flush implements Sink. Writes go straight to the descriptor, so there is
// nothing to push; durability is left to Sync.
func (c *Console) Flush() error {
	return nil
}

// Sync commits the stream to stable storage when it is redirected to a regular file
func (c *Console) Sync() error {
	fi, err := c.f.Stat()
	if err != nil || !fi.Mode().IsRegular() {
		return nil
	}
	if err := c.f.Sync(); err != nil {
		return errors.Wrapf(err, "sync %s", c.name)
	}
	return nil
}

// String returns the stream name
func (c *Console) String() string {
	return c.name
}
