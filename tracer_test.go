// FILE: monoview/trace/tracer_test.go
package trace

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monoview/trace/sink"
)

// createTestTracer creates a tracer writing into a capture buffer
func createTestTracer(t *testing.T, mode Mode, modify ...func(*Config)) (*Tracer, *sink.Buffer) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Mode = string(mode)
	for _, fn := range modify {
		fn(cfg)
	}

	buf := sink.NewBuffer()
	tr, err := New(cfg, buf)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = tr.Shutdown()
	})
	return tr, buf
}

// gateSink blocks inside its first Write until released, holding the async worker
type gateSink struct {
	*sink.Buffer
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGateSink() *gateSink {
	return &gateSink{
		Buffer:  sink.NewBuffer(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (g *gateSink) Write(p []byte) (int, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.Buffer.Write(p)
}

// failSink rejects every write
type failSink struct{}

func (failSink) Write([]byte) (int, error) { return 0, errors.New("boom") }
func (failSink) Flush() error              { return nil }

// funcSink is not comparable and cannot be registered
type funcSink struct {
	write func([]byte) (int, error)
}

func (f funcSink) Write(p []byte) (int, error) { return f.write(p) }
func (f funcSink) Flush() error                { return nil }

func TestNew(t *testing.T) {
	t.Run("nil config uses defaults", func(t *testing.T) {
		tr, err := New(nil)
		require.NoError(t, err)
		defer tr.Shutdown()

		assert.Equal(t, LevelInfo, tr.Level())
		assert.Equal(t, FlagDefault, tr.Flags())
		assert.Equal(t, ModeAsync, tr.Mode())
		assert.Zero(t, tr.Streams())
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Mode = "blocking"
		tr, err := New(cfg)
		assert.Error(t, err)
		assert.Nil(t, tr)
	})

	t.Run("nil sink is rejected", func(t *testing.T) {
		tr, err := New(nil, nil)
		assert.ErrorIs(t, err, ErrNilSink)
		assert.Nil(t, tr)
	})

	t.Run("config is copied", func(t *testing.T) {
		cfg := DefaultConfig()
		tr, err := New(cfg)
		require.NoError(t, err)
		defer tr.Shutdown()

		cfg.Level = "error"
		assert.Equal(t, "info", tr.GetConfig().Level)
	})
}

func TestScenarioThresholdAndFormat(t *testing.T) {
	for _, mode := range []Mode{ModeSync, ModeAsync} {
		t.Run(string(mode), func(t *testing.T) {
			tr, buf := createTestTracer(t, mode)

			tr.Trace(LevelDebug, "main.c", "main", 1, "x")
			require.NoError(t, tr.Flush(time.Second))
			assert.Zero(t, buf.Len())

			tr.Trace(LevelInfo, "main.c", "main", 2, "hello %d", 5)
			require.NoError(t, tr.Flush(time.Second))

			lines := buf.Lines()
			require.Len(t, lines, 1)
			assert.Contains(t, lines[0], "hello 5")
			assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}\]  INFO hello 5$`, lines[0])
		})
	}
}

func TestBelowThresholdDoesNotAllocate(t *testing.T) {
	tr, buf := createTestTracer(t, ModeSync, func(c *Config) {
		c.Level = "error"
		c.ShowFile = true
	})

	allocs := testing.AllocsPerRun(200, func() {
		tr.Trace(LevelDebug, "main.c", "main", 1, "static message")
		tr.Debugf("static message")
		tr.Warnf("static message")
		tr.Dump(LevelInfo, "value", nil)
	})
	assert.Zero(t, allocs)
	assert.Zero(t, buf.Len())
	assert.Zero(t, tr.Stats().Submitted)
}

func TestSyncWritesBeforeReturn(t *testing.T) {
	tr, buf := createTestTracer(t, ModeSync, func(c *Config) {
		c.ShowTimestamp = false
	})
	second := sink.NewBuffer()
	require.NoError(t, tr.AddStream(second))

	for i, lvl := range []Level{LevelInfo, LevelWarn, LevelError, LevelFatal} {
		tr.Trace(lvl, "f.go", "fn", i, "record %d", i)
		assert.Len(t, buf.Lines(), i+1)
		assert.Len(t, second.Lines(), i+1)
	}

	assert.Equal(t, []string{
		" INFO record 0",
		" WARN record 1",
		"ERROR record 2",
		"FATAL record 3",
	}, buf.Lines())
	assert.Equal(t, 4, buf.Flushes(), "each record is flushed")
}

func TestLocationFlags(t *testing.T) {
	tr, buf := createTestTracer(t, ModeSync, func(c *Config) {
		c.ShowTimestamp = false
	})

	tests := []struct {
		flags    Flag
		expected string
	}{
		{0, " WARN msg"},
		{FlagFile, " WARN a.go: msg"},
		{FlagFunc, " WARN run: msg"},
		{FlagLine, " WARN 7: msg"},
		{FlagFile | FlagLine, " WARN a.go:7: msg"},
		{FlagFile | FlagFunc | FlagLine, " WARN a.go:run:7: msg"},
	}

	for _, tt := range tests {
		buf.Reset()
		tr.SetFlags(tt.flags)
		assert.Equal(t, tt.flags, tr.Flags())
		tr.Trace(LevelWarn, "a.go", "run", 7, "msg")
		assert.Equal(t, tt.expected+"\n", buf.String())
	}
}

func TestCallerCapture(t *testing.T) {
	tr, buf := createTestTracer(t, ModeSync, func(c *Config) {
		c.ShowTimestamp = false
		c.ShowFile = true
		c.ShowFunc = true
	})

	tr.Infof("here")
	assert.Equal(t, " INFO tracer_test.go:TestCallerCapture: here\n", buf.String())

	buf.Reset()
	func() {
		tr.Errorf("nested")
	}()
	assert.Equal(t, "ERROR tracer_test.go:TestCallerCapture: nested\n", buf.String())
}

func TestStreams(t *testing.T) {
	tr, buf := createTestTracer(t, ModeSync)

	t.Run("add is idempotent", func(t *testing.T) {
		require.NoError(t, tr.AddStream(buf))
		require.NoError(t, tr.AddStream(buf))
		assert.Equal(t, 1, tr.Streams())
	})

	t.Run("remove unknown returns not found", func(t *testing.T) {
		other := sink.NewBuffer()
		before := append([]sink.Sink(nil), tr.registry.sinks...)
		assert.ErrorIs(t, tr.RemoveStream(other), ErrNotFound)
		assert.Equal(t, before, tr.registry.sinks)
	})

	t.Run("remove keeps order", func(t *testing.T) {
		a, b, c := sink.NewBuffer(), sink.NewBuffer(), sink.NewBuffer()
		require.NoError(t, tr.AddStream(a))
		require.NoError(t, tr.AddStream(b))
		require.NoError(t, tr.AddStream(c))
		require.NoError(t, tr.RemoveStream(b))
		assert.Equal(t, []sink.Sink{buf, a, c}, tr.registry.sinks)
		require.NoError(t, tr.RemoveStream(a))
		require.NoError(t, tr.RemoveStream(c))
	})

	t.Run("nil and non-comparable sinks", func(t *testing.T) {
		assert.ErrorIs(t, tr.AddStream(nil), ErrNilSink)
		assert.ErrorIs(t, tr.RemoveStream(nil), ErrNilSink)
		fs := funcSink{write: func(p []byte) (int, error) { return len(p), nil }}
		assert.ErrorIs(t, tr.AddStream(fs), ErrSinkNotComparable)
		assert.ErrorIs(t, tr.RemoveStream(fs), ErrNotFound)
		assert.Equal(t, 1, tr.Streams())
	})

	t.Run("removed sink stops receiving", func(t *testing.T) {
		extra := sink.NewBuffer()
		require.NoError(t, tr.AddStream(extra))
		tr.Infof("one")
		require.NoError(t, tr.RemoveStream(extra))
		tr.Infof("two")
		assert.Len(t, extra.Lines(), 1)
	})
}

func TestTruncation(t *testing.T) {
	const capacity = 64
	tr, buf := createTestTracer(t, ModeSync, func(c *Config) {
		c.ShowTimestamp = false
		c.MaxEntryLen = capacity
	})
	prefix := len(" INFO ")

	for _, n := range []int{capacity - 1, capacity, capacity + 1000} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			buf.Reset()
			before := tr.Stats().Truncated

			tr.Trace(LevelInfo, "", "", 0, "%s", strings.Repeat("m", n-prefix))

			out := buf.String()
			require.True(t, strings.HasSuffix(out, "\n"))
			assert.Len(t, out, min(n, capacity-1)+1)
			assert.Equal(t, 1, strings.Count(out, "\n"))

			wantTruncated := uint64(0)
			if n > capacity-1 {
				wantTruncated = 1
			}
			assert.Equal(t, wantTruncated, tr.Stats().Truncated-before)
		})
	}
}

func TestColoredSinks(t *testing.T) {
	tr, plain := createTestTracer(t, ModeSync, func(c *Config) {
		c.ShowTimestamp = false
		c.Level = "debug"
	})
	colored := sink.NewBuffer().WithColor(true)
	require.NoError(t, tr.AddStream(colored))

	tr.Trace(LevelDebug, "", "", 0, "d")
	tr.Trace(LevelInfo, "", "", 0, "i")
	tr.Trace(LevelWarn, "", "", 0, "w")
	tr.Trace(LevelError, "", "", 0, "e")
	tr.Trace(LevelFatal, "", "", 0, "f")

	assert.Equal(t, []string{"DEBUG d", " INFO i", " WARN w", "ERROR e", "FATAL f"}, plain.Lines())
	assert.Equal(t, []string{
		"\x1b[34mDEBUG\x1b[0m d",
		"\x1b[32m INFO\x1b[0m i",
		"\x1b[33m WARN\x1b[0m w",
		"\x1b[31mERROR\x1b[0m e",
		"\x1b[35mFATAL\x1b[0m f",
	}, colored.Lines())
}

func TestSinkErrorsAreCounted(t *testing.T) {
	tr, buf := createTestTracer(t, ModeSync)
	require.NoError(t, tr.AddStream(failSink{}))

	tr.Infof("still delivered")
	assert.Len(t, buf.Lines(), 1)
	assert.Equal(t, uint64(1), tr.Stats().SinkErrors)
	assert.Equal(t, uint64(1), tr.Stats().Dispatched)
}

func TestSetLevel(t *testing.T) {
	tr, buf := createTestTracer(t, ModeSync)

	tr.Debugf("hidden")
	tr.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, tr.Level())
	assert.Equal(t, "debug", tr.GetConfig().Level)
	assert.True(t, tr.Enabled(LevelDebug))
	tr.Debugf("shown")

	lines := buf.Lines()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "DEBUG shown")
}

func TestSetLevelConcurrentWithReconfigure(t *testing.T) {
	tr, _ := createTestTracer(t, ModeSync)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			tr.SetLevel(LevelDebug)
			tr.SetFlags(FlagFile)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			cfg := tr.GetConfig()
			cfg.Level = "error"
			cfg.ShowFile = false
			cfg.ShowLine = true
			assert.NoError(t, tr.Reconfigure(cfg))
		}
	}()
	wg.Wait()

	cfg := tr.GetConfig()
	lvl, err := ParseLevel(cfg.Level)
	require.NoError(t, err)
	assert.Equal(t, lvl, tr.Level(), "threshold matches the published config")
	assert.Equal(t, cfg.flags(), tr.Flags(), "flags match the published config")
}

func TestSanitize(t *testing.T) {
	tr, buf := createTestTracer(t, ModeSync, func(c *Config) {
		c.ShowTimestamp = false
		c.Sanitize = true
	})

	tr.Infof("clear %s", "\x1b[2Jscreen")
	assert.Equal(t, " INFO clear <1b>[2Jscreen\n", buf.String())
}

func TestDump(t *testing.T) {
	tr, buf := createTestTracer(t, ModeSync, func(c *Config) {
		c.ShowTimestamp = false
	})

	tr.Dump(LevelInfo, "point", struct{ X, Y int }{1, 2})
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, " INFO point:\n"))
	assert.Contains(t, out, "X: (int) 1")
	assert.Contains(t, out, "Y: (int) 2")
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestTraceAfterShutdown(t *testing.T) {
	for _, mode := range []Mode{ModeSync, ModeAsync} {
		t.Run(string(mode), func(t *testing.T) {
			tr, buf := createTestTracer(t, mode)
			require.NoError(t, tr.Shutdown())

			tr.Infof("ignored")
			assert.Zero(t, buf.Len())
			assert.ErrorIs(t, tr.Flush(time.Second), ErrShutdown)
			assert.ErrorIs(t, tr.Start(), ErrShutdown)
			assert.NoError(t, tr.Shutdown(), "second shutdown is a no-op")
		})
	}
}
