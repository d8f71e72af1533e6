// FILE: monoview/trace/builder.go
package trace

import (
	"strings"

	"github.com/monoview/trace/sink"
)

// Builder provides a fluent API for building tracer configurations.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg   *Config
	sinks []sink.Sink
	err   error // Accumulate errors for deferred handling
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates a new Tracer instance with the specified configuration.
func (b *Builder) Build() (*Tracer, error) {
	if b.err != nil {
		return nil, b.err
	}
	return New(b.cfg, b.sinks...)
}

// Config returns a copy of the configuration built so far.
func (b *Builder) Config() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.cfg.Clone(), nil
}

// Level sets the threshold.
func (b *Builder) Level(level Level) *Builder {
	if !level.valid() {
		b.setErr(fmtErrorf("invalid level: %d", int64(level)))
		return b
	}
	b.cfg.Level = strings.ToLower(level.String())
	return b
}

// LevelString sets the threshold from a string.
func (b *Builder) LevelString(level string) *Builder {
	if b.err != nil {
		return b
	}
	if _, err := ParseLevel(level); err != nil {
		b.err = err
		return b
	}
	b.cfg.Level = strings.ToLower(level)
	return b
}

// Sync selects synchronous delivery.
func (b *Builder) Sync() *Builder {
	b.cfg.Mode = string(ModeSync)
	return b
}

// Async selects asynchronous delivery.
func (b *Builder) Async() *Builder {
	b.cfg.Mode = string(ModeAsync)
	return b
}

// Flags sets the line field bit-set.
func (b *Builder) Flags(flags Flag) *Builder {
	b.cfg.setFlags(flags)
	return b
}

// MaxEntryLen sets the line capacity including the terminator.
func (b *Builder) MaxEntryLen(n int64) *Builder {
	b.cfg.MaxEntryLen = n
	return b
}

// MaxPending caps the async records waiting for the worker.
func (b *Builder) MaxPending(n int64) *Builder {
	b.cfg.MaxPending = n
	return b
}

// Chronological controls whether drained batches are delivered oldest first.
func (b *Builder) Chronological(enable bool) *Builder {
	b.cfg.ChronologicalBatches = enable
	return b
}

// Stdout opens the stdout console sink.
func (b *Builder) Stdout(enable bool) *Builder {
	b.cfg.Stdout = enable
	return b
}

// Stderr opens the stderr console sink.
func (b *Builder) Stderr(enable bool) *Builder {
	b.cfg.Stderr = enable
	return b
}

// File appends records to path.
func (b *Builder) File(path string) *Builder {
	b.cfg.File = path
	return b
}

// Color sets the console color mode.
func (b *Builder) Color(mode string) *Builder {
	b.cfg.Color = mode
	return b
}

// Sanitize hex-encodes non-printable runes.
func (b *Builder) Sanitize(enable bool) *Builder {
	b.cfg.Sanitize = enable
	return b
}

// HeartbeatIntervalS sets the heartbeat interval in seconds.
func (b *Builder) HeartbeatIntervalS(interval int64) *Builder {
	b.cfg.HeartbeatIntervalS = interval
	return b
}

// Sink registers an extra sink at construction.
func (b *Builder) Sink(s sink.Sink) *Builder {
	if s == nil {
		b.setErr(ErrNilSink)
		return b
	}
	b.sinks = append(b.sinks, s)
	return b
}

// Override applies "key=value" strings.
func (b *Builder) Override(overrides ...string) *Builder {
	if b.err != nil {
		return b
	}
	b.setErr(b.cfg.Apply(overrides...))
	return b
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Example usage:
// tr, err := trace.NewBuilder().
//
//	LevelString("debug").
//	Flags(trace.FlagAll).
//	Stderr(true).
//	Build()
//
// if err == nil {
//
//	 defer tr.Shutdown()
//	 tr.Infof("tracer initialized")
//
// }
