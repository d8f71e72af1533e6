// FILE: monoview/trace/lifecycle_test.go
package trace

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monoview/trace/sink"
)

// asyncNoTime creates an async tracer whose lines are just LEVEL and message
func asyncNoTime(t *testing.T, modify ...func(*Config)) (*Tracer, *gateSink) {
	t.Helper()
	gate := newGateSink()
	cfg := DefaultConfig()
	cfg.Mode = string(ModeAsync)
	cfg.ShowTimestamp = false
	for _, fn := range modify {
		fn(cfg)
	}
	tr, err := New(cfg, gate)
	require.NoError(t, err)
	t.Cleanup(func() {
		select {
		case <-gate.release:
		default:
			close(gate.release)
		}
		_ = tr.Shutdown()
	})
	return tr, gate
}

// holdWorker parks the worker inside the first sink write so later records pile up on the stack
func holdWorker(t *testing.T, tr *Tracer, gate *gateSink) {
	t.Helper()
	tr.Infof("first")
	select {
	case <-gate.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never reached the sink")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	tr, _ := createTestTracer(t, ModeAsync)

	assert.True(t, tr.dispatcher.running(), "Tracer should be started by New")

	require.NoError(t, tr.Stop())
	assert.False(t, tr.dispatcher.running(), "Tracer should be stopped after Stop()")

	require.NoError(t, tr.Start())
	assert.True(t, tr.dispatcher.running(), "Tracer should be started after restart")
}

func TestStartStopIdempotent(t *testing.T) {
	tr, _ := createTestTracer(t, ModeAsync)

	assert.NoError(t, tr.Start())
	assert.True(t, tr.dispatcher.running())

	assert.NoError(t, tr.Stop())
	assert.NoError(t, tr.Stop())
	assert.False(t, tr.dispatcher.running())
}

func TestSyncStartStopAreNoOps(t *testing.T) {
	tr, buf := createTestTracer(t, ModeSync)

	assert.NoError(t, tr.Stop())
	tr.Infof("still written")
	assert.NoError(t, tr.Start())
	assert.Len(t, buf.Lines(), 1)
}

func TestAsyncFlushDelivers(t *testing.T) {
	tr, buf := createTestTracer(t, ModeAsync)

	for i := 0; i < 100; i++ {
		tr.Infof("message %d", i)
	}
	require.NoError(t, tr.Flush(5*time.Second))

	assert.Len(t, buf.Lines(), 100)
	stats := tr.Stats()
	assert.Equal(t, uint64(100), stats.Submitted)
	assert.Equal(t, uint64(100), stats.Dispatched)
	assert.Zero(t, stats.Pending)
	assert.NotZero(t, stats.Batches)
}

func TestFlushWhenStopped(t *testing.T) {
	tr, _ := createTestTracer(t, ModeAsync)
	require.NoError(t, tr.Stop())
	assert.Error(t, tr.Flush(time.Second))
}

func TestBatchOrdering(t *testing.T) {
	tests := []struct {
		name          string
		chronological bool
		expected      []string
	}{
		{"chronological", true, []string{" INFO first", " INFO a", " INFO b", " INFO c"}},
		{"most recent first", false, []string{" INFO first", " INFO c", " INFO b", " INFO a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, gate := asyncNoTime(t, func(c *Config) {
				c.ChronologicalBatches = tt.chronological
			})

			holdWorker(t, tr, gate)
			tr.Infof("a")
			tr.Infof("b")
			tr.Infof("c")
			assert.Equal(t, int64(3), tr.Stats().Pending)

			close(gate.release)
			require.NoError(t, tr.Flush(5*time.Second))
			assert.Equal(t, tt.expected, gate.Lines())
		})
	}
}

func TestStopDiscardsPending(t *testing.T) {
	tr, gate := asyncNoTime(t)

	holdWorker(t, tr, gate)
	tr.Infof("lost 1")
	tr.Infof("lost 2")

	stopped := make(chan error, 1)
	go func() {
		stopped <- tr.Stop()
	}()
	require.Eventually(t, func() bool {
		return !tr.dispatcher.running()
	}, 5*time.Second, time.Millisecond)

	close(gate.release)
	require.NoError(t, <-stopped)

	assert.Equal(t, []string{" INFO first"}, gate.Lines())
	stats := tr.Stats()
	assert.Equal(t, uint64(2), stats.Discarded)
	assert.Equal(t, uint64(1), stats.Dispatched)
	assert.Zero(t, stats.Pending)

	// Records traced while stopped are dropped
	tr.Infof("dropped")
	assert.Equal(t, uint64(1), tr.Stats().Dropped)

	// A restarted worker delivers new records
	require.NoError(t, tr.Start())
	tr.Infof("after restart")
	require.NoError(t, tr.Flush(5*time.Second))
	assert.Equal(t, []string{" INFO first", " INFO after restart"}, gate.Lines())
}

func TestStopRacingProducersLeavesNothingPending(t *testing.T) {
	tr, buf := createTestTracer(t, ModeAsync, func(c *Config) {
		c.ShowTimestamp = false
	})

	var (
		wg   sync.WaitGroup
		quit = make(chan struct{})
	)
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-quit:
					return
				default:
					tr.Infof("x")
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		require.NoError(t, tr.Stop())
		require.NoError(t, tr.Start())
	}
	require.NoError(t, tr.Stop())
	close(quit)
	wg.Wait()

	stats := tr.Stats()
	assert.Zero(t, stats.Pending, "no record may outlive the final stop")
	assert.Equal(t, stats.Submitted, stats.Dispatched+stats.Dropped+stats.Discarded)
	assert.Equal(t, int(stats.Dispatched), len(buf.Lines()))
}

func TestMaxPendingDrops(t *testing.T) {
	tr, gate := asyncNoTime(t, func(c *Config) {
		c.MaxPending = 2
	})

	holdWorker(t, tr, gate)
	tr.Infof("a")
	tr.Infof("b")
	tr.Infof("c")
	assert.Equal(t, uint64(1), tr.Stats().Dropped)

	close(gate.release)
	require.NoError(t, tr.Flush(5*time.Second))
	assert.Equal(t, []string{" INFO first", " INFO a", " INFO b"}, gate.Lines())
}

func TestConcurrentAsyncThroughput(t *testing.T) {
	const (
		producers   = 8
		perProducer = 500
	)
	tr, buf := createTestTracer(t, ModeAsync, func(c *Config) {
		c.ShowTimestamp = false
	})
	second := sink.NewBuffer()
	require.NoError(t, tr.AddStream(second))

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				tr.Infof("%d %d", p, i)
			}
		}(p)
	}
	wg.Wait()
	require.NoError(t, tr.Flush(10*time.Second))

	for _, b := range []*sink.Buffer{buf, second} {
		lines := b.Lines()
		require.Len(t, lines, producers*perProducer)

		seen := make([]string, 0, len(lines))
		for _, line := range lines {
			seen = append(seen, strings.TrimPrefix(line, " INFO "))
		}
		sort.Strings(seen)
		expected := make([]string, 0, producers*perProducer)
		for p := 0; p < producers; p++ {
			for i := 0; i < perProducer; i++ {
				expected = append(expected, strconv.Itoa(p)+" "+strconv.Itoa(i))
			}
		}
		sort.Strings(expected)
		assert.Equal(t, expected, seen)
	}
	assert.Zero(t, tr.Stats().Dropped)
}

func TestConcurrentSyncNoInterleave(t *testing.T) {
	tr, buf := createTestTracer(t, ModeSync, func(c *Config) {
		c.ShowTimestamp = false
	})

	payload := strings.Repeat("z", 200)
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				tr.Warnf("%s", payload)
			}
		}()
	}
	wg.Wait()

	lines := buf.Lines()
	require.Len(t, lines, 400)
	for _, line := range lines {
		assert.Equal(t, " WARN "+payload, line)
	}
}

func TestShutdownDrainsAndClosesOwnedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.log")
	cfg := DefaultConfig()
	cfg.File = path
	cfg.ShowTimestamp = false

	tr, err := New(cfg)
	require.NoError(t, err)
	require.Equal(t, 1, tr.Streams())

	for i := 0; i < 10; i++ {
		tr.Errorf("line %d", i)
	}
	require.NoError(t, tr.Shutdown(5*time.Second))
	assert.Zero(t, tr.Streams())

	data := readFile(t, path)
	assert.Equal(t, 10, strings.Count(data, "ERROR line"))
}
