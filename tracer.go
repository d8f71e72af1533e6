// FILE: monoview/trace/tracer.go
package trace

import (
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/monoview/trace/formatter"
	"github.com/monoview/trace/sanitizer"
	"github.com/monoview/trace/sink"
)

// Tracer fans leveled printf-style records out to a set of sinks, either
// on the calling goroutine (sync) or through a background worker (async).
type Tracer struct {
	config        atomic.Pointer[Config]
	state         State
	level         atomic.Int64
	flags         atomic.Uint32
	maxPending    atomic.Int64
	chronological atomic.Bool
	formatter     atomic.Pointer[formatter.Formatter]

	mode        Mode
	maxEntryLen int
	records     sync.Pool
	registry    sinkRegistry
	dispatcher  dispatcher

	initMu    sync.Mutex
	owned     []sink.Sink // Opened from config, closed by Shutdown
	heartbeat *heartbeat
}

// New creates a tracer from cfg (defaults when nil), opens the sinks the
// config requests, registers the extra sinks and, in async mode, starts the worker.
func New(cfg *Config, sinks ...sink.Sink) (*Tracer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmtErrorf("invalid configuration: %w", err)
	}
	cfg = cfg.Clone()

	t := &Tracer{
		mode:        Mode(cfg.Mode),
		maxEntryLen: int(cfg.MaxEntryLen),
	}
	t.records.New = func() any {
		return &logRecord{line: formatter.NewLine(t.maxEntryLen)}
	}
	t.dispatcher = newDispatcher(t, t.mode)
	t.state.TracerStartTime.Store(time.Now())
	t.applyRuntimeConfig(cfg)

	if err := t.openConfiguredSinks(cfg); err != nil {
		t.closeOwned()
		return nil, err
	}
	for _, s := range sinks {
		if err := t.registry.add(s); err != nil {
			t.closeOwned()
			return nil, err
		}
	}

	if err := t.dispatcher.start(); err != nil {
		t.closeOwned()
		return nil, fmtErrorf("failed to start worker: %w", err)
	}

	if cfg.HeartbeatIntervalS > 0 {
		t.startHeartbeat(time.Duration(cfg.HeartbeatIntervalS) * time.Second)
	}

	return t, nil
}

// openConfiguredSinks registers the console and file sinks named in cfg
func (t *Tracer) openConfiguredSinks(cfg *Config) error {
	if cfg.Stdout {
		if err := t.registry.add(consoleFor(os.Stdout, "stdout", sink.Stdout(), cfg.Color)); err != nil {
			return err
		}
	}
	if cfg.Stderr {
		if err := t.registry.add(consoleFor(os.Stderr, "stderr", sink.Stderr(), cfg.Color)); err != nil {
			return err
		}
	}
	if cfg.File != "" {
		f, err := sink.NewFile(cfg.File)
		if err != nil {
			return fmtErrorf("failed to open trace file '%s': %w", cfg.File, err)
		}
		t.owned = append(t.owned, f)
		if err := t.registry.add(f); err != nil {
			return err
		}
	}
	return nil
}

// consoleFor returns the shared console in auto mode and a private one when color is forced
func consoleFor(f *os.File, name string, shared *sink.Console, color string) *sink.Console {
	switch color {
	case ColorAlways:
		return sink.NewConsole(f, name).SetColored(true)
	case ColorNever:
		return sink.NewConsole(f, name).SetColored(false)
	default:
		return shared
	}
}

func (t *Tracer) closeOwned() {
	for _, s := range t.owned {
		if closer, ok := s.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}
	t.owned = nil
}

// applyRuntimeConfig publishes the keys that may change while running
func (t *Tracer) applyRuntimeConfig(cfg *Config) {
	t.config.Store(cfg)
	t.level.Store(int64(cfg.level()))
	t.flags.Store(uint32(cfg.flags()))
	t.maxPending.Store(cfg.MaxPending)
	t.chronological.Store(cfg.ChronologicalBatches)

	var san *sanitizer.Sanitizer
	if cfg.Sanitize {
		san = sanitizer.New().Policy(sanitizer.PolicyTxt)
	}
	t.formatter.Store(formatter.New(san).TimestampFormat(cfg.TimestampFormat))
}

// getConfig returns the current configuration (thread-safe)
func (t *Tracer) getConfig() *Config {
	return t.config.Load()
}

// GetConfig returns a copy of current configuration
func (t *Tracer) GetConfig() *Config {
	return t.getConfig().Clone()
}

// Mode returns the delivery mode fixed at construction
func (t *Tracer) Mode() Mode {
	return t.mode
}

// Start begins async delivery. Safe to call multiple times; a no-op in sync mode.
func (t *Tracer) Start() error {
	if t.state.ShutdownCalled.Load() {
		return ErrShutdown
	}
	return t.dispatcher.start()
}

// Stop halts async delivery and discards records not yet written.
// Use Flush first when delivery matters. Can be restarted with Start.
func (t *Tracer) Stop() error {
	return t.dispatcher.stop()
}

// SetLevel changes the threshold
func (t *Tracer) SetLevel(level Level) {
	t.updateConfig(func(c *Config) {
		c.Level = strings.ToLower(level.String())
		t.level.Store(int64(level))
	})
}

// Level returns the current threshold
func (t *Tracer) Level() Level {
	return Level(t.level.Load())
}

// Enabled reports whether records at level pass the threshold
func (t *Tracer) Enabled(level Level) bool {
	return int64(level) >= t.level.Load()
}

// SetFlags replaces the line field bit-set
func (t *Tracer) SetFlags(flags Flag) {
	flags &= FlagAll
	t.updateConfig(func(c *Config) {
		c.setFlags(flags)
		t.flags.Store(uint32(flags))
	})
}

// Flags returns the line field bit-set
func (t *Tracer) Flags() Flag {
	return Flag(t.flags.Load())
}

// updateConfig publishes a modified copy of the config. fn runs under initMu,
// so atomics stored there stay consistent with the published config.
func (t *Tracer) updateConfig(fn func(*Config)) {
	t.initMu.Lock()
	defer t.initMu.Unlock()
	cfg := t.getConfig().Clone()
	fn(cfg)
	t.config.Store(cfg)
}

// AddStream registers s. Adding a sink that is already registered is a no-op.
func (t *Tracer) AddStream(s sink.Sink) error {
	return t.registry.add(s)
}

// RemoveStream unregisters s, returning ErrNotFound if it was never added
func (t *Tracer) RemoveStream(s sink.Sink) error {
	return t.registry.remove(s)
}

// Streams returns the number of registered sinks
func (t *Tracer) Streams() int {
	return t.registry.len()
}

// Trace emits one record with an explicit location. Records below the
// threshold return immediately without formatting.
func (t *Tracer) Trace(level Level, file, fn string, line int, format string, args ...any) {
	if int64(level) < t.level.Load() {
		return
	}
	t.log(level, formatter.Location{File: file, Func: fn, Line: line}, format, args)
}

// Debugf logs a message at debug level
func (t *Tracer) Debugf(format string, args ...any) {
	if int64(LevelDebug) < t.level.Load() {
		return
	}
	t.log(LevelDebug, t.caller(1), format, args)
}

// Infof logs a message at info level
func (t *Tracer) Infof(format string, args ...any) {
	if int64(LevelInfo) < t.level.Load() {
		return
	}
	t.log(LevelInfo, t.caller(1), format, args)
}

// Warnf logs a message at warning level
func (t *Tracer) Warnf(format string, args ...any) {
	if int64(LevelWarn) < t.level.Load() {
		return
	}
	t.log(LevelWarn, t.caller(1), format, args)
}

// Errorf logs a message at error level
func (t *Tracer) Errorf(format string, args ...any) {
	if int64(LevelError) < t.level.Load() {
		return
	}
	t.log(LevelError, t.caller(1), format, args)
}

// Fatalf logs a message at fatal level. It does not exit the process.
func (t *Tracer) Fatalf(format string, args ...any) {
	if int64(LevelFatal) < t.level.Load() {
		return
	}
	t.log(LevelFatal, t.caller(1), format, args)
}

// Logf logs at level with the location taken skip frames above its caller.
// Adapters pass 1 to report the code that called them.
func (t *Tracer) Logf(level Level, skip int, format string, args ...any) {
	if int64(level) < t.level.Load() {
		return
	}
	t.log(level, t.caller(skip+1), format, args)
}

// Dump logs label followed by a multi-line rendering of v
func (t *Tracer) Dump(level Level, label string, v any) {
	if int64(level) < t.level.Load() {
		return
	}
	t.dump(level, t.caller(1), label, v)
}

// caller resolves the location skip frames above its caller, only when a location field is shown
func (t *Tracer) caller(skip int) formatter.Location {
	if Flag(t.flags.Load())&(FlagFile|FlagFunc|FlagLine) == 0 {
		return formatter.Location{}
	}
	file, fn, line := getCaller(skip + 1)
	return formatter.Location{File: file, Func: fn, Line: line}
}
