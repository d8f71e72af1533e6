// FILE: monoview/trace/heartbeat.go
package trace

import (
	"runtime"
	"time"

	"github.com/monoview/trace/formatter"
)

// heartbeatLocation stands in for a call site on heartbeat records
var heartbeatLocation = formatter.Location{File: "trace", Func: "heartbeat"}

type heartbeat struct {
	stop chan struct{}
	done chan struct{}
}

// startHeartbeat emits a statistics record every interval until stopHeartbeat
func (t *Tracer) startHeartbeat(interval time.Duration) {
	hb := &heartbeat{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	t.initMu.Lock()
	t.heartbeat = hb
	t.initMu.Unlock()

	go func() {
		defer close(hb.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.logHeartbeat()
			case <-hb.stop:
				return
			}
		}
	}()
}

func (t *Tracer) stopHeartbeat() {
	t.initMu.Lock()
	hb := t.heartbeat
	t.heartbeat = nil
	t.initMu.Unlock()

	if hb != nil {
		close(hb.stop)
		<-hb.done
	}
}

// logHeartbeat writes tracer and runtime statistics. Heartbeats ignore the threshold.
func (t *Tracer) logHeartbeat() {
	sequence := t.state.HeartbeatSequence.Add(1)
	stats := t.Stats()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	t.log(LevelInfo, heartbeatLocation,
		"heartbeat sequence=%d uptime_hours=%.2f submitted=%d dispatched=%d dropped=%d discarded=%d truncated=%d sink_errors=%d pending=%d alloc_mb=%.2f num_goroutine=%d",
		[]any{
			sequence,
			stats.Uptime.Hours(),
			stats.Submitted,
			stats.Dispatched,
			stats.Dropped,
			stats.Discarded,
			stats.Truncated,
			stats.SinkErrors,
			stats.Pending,
			float64(memStats.Alloc) / (1000 * 1000),
			runtime.NumGoroutine(),
		})
}
