// FILE: monoview/trace/builder_test.go
package trace

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monoview/trace/sink"
)

func TestBuilder_Build(t *testing.T) {
	t.Run("successful build returns configured tracer", func(t *testing.T) {
		buf := sink.NewBuffer()
		path := filepath.Join(t.TempDir(), "built.log")

		tr, err := NewBuilder().
			LevelString("debug").
			Sync().
			Flags(FlagFile | FlagLine).
			MaxEntryLen(128).
			MaxPending(10).
			Chronological(false).
			File(path).
			Color(ColorNever).
			Sanitize(true).
			Sink(buf).
			Build()

		if tr != nil {
			defer tr.Shutdown()
		}

		require.NoError(t, err, "Builder.Build() should not return an error on valid config")
		require.NotNil(t, tr, "Builder.Build() should return a non-nil tracer")

		cfg := tr.GetConfig()
		assert.Equal(t, "debug", cfg.Level)
		assert.Equal(t, string(ModeSync), cfg.Mode)
		assert.Equal(t, FlagFile|FlagLine, tr.Flags())
		assert.Equal(t, int64(128), cfg.MaxEntryLen)
		assert.Equal(t, int64(10), cfg.MaxPending)
		assert.False(t, cfg.ChronologicalBatches)
		assert.Equal(t, path, cfg.File)
		assert.True(t, cfg.Sanitize)
		assert.Equal(t, 2, tr.Streams(), "file plus extra sink")

		tr.Trace(LevelDebug, "b.go", "fn", 3, "built")
		assert.Equal(t, "DEBUG b.go:3: built\n", buf.String())
	})

	t.Run("builder error prevents build", func(t *testing.T) {
		tr, err := NewBuilder().
			LevelString("invalid-level").
			Stdout(true).
			Build()

		assert.Error(t, err)
		assert.Nil(t, tr)
		assert.Contains(t, err.Error(), "invalid level string")
	})

	t.Run("first error is kept", func(t *testing.T) {
		_, err := NewBuilder().
			Level(Level(42)).
			Sink(nil).
			Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid level: 42")
	})

	t.Run("nil sink", func(t *testing.T) {
		_, err := NewBuilder().Sink(nil).Build()
		assert.ErrorIs(t, err, ErrNilSink)
	})

	t.Run("validation happens at build", func(t *testing.T) {
		_, err := NewBuilder().MaxEntryLen(1).Build()
		assert.ErrorContains(t, err, "max_entry_len")
	})
}

func TestBuilder_Override(t *testing.T) {
	cfg, err := NewBuilder().
		Level(LevelWarn).
		Async().
		Override("show_func=true", "heartbeat_interval_s=30").
		HeartbeatIntervalS(60).
		Config()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Level)
	assert.True(t, cfg.ShowFunc)
	assert.Equal(t, int64(60), cfg.HeartbeatIntervalS)

	_, err = NewBuilder().Override("bogus=1").Config()
	assert.ErrorContains(t, err, "unknown configuration key")
}

func TestBuilder_Console(t *testing.T) {
	tr, err := NewBuilder().
		Stdout(true).
		Stderr(true).
		Color(ColorAlways).
		Build()
	require.NoError(t, err)
	defer tr.Shutdown(time.Second)

	assert.Equal(t, 2, tr.Streams())
	// Forced color registers private consoles, not the shared ones
	assert.ErrorIs(t, tr.RemoveStream(sink.Stdout()), ErrNotFound)
	assert.ErrorIs(t, tr.RemoveStream(sink.Stderr()), ErrNotFound)
}
