package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/monoview/trace"
	"github.com/monoview/trace/sink"
)

// Simulate rapid reconfiguration while tracing
func main() {
	var count atomic.Int64

	buf := sink.NewBuffer()
	tr, err := trace.NewBuilder().
		Async().
		LevelString("debug").
		Sink(buf).
		Build()
	if err != nil {
		fmt.Printf("Initial build error: %v\n", err)
		return
	}

	// Trace something constantly
	stop := make(chan struct{})
	go func() {
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			tr.Infof("Test record %d", i)
			count.Add(1)
			time.Sleep(time.Millisecond)
		}
	}()

	// Trigger multiple reconfigurations rapidly
	for i := 0; i < 10; i++ {
		err := tr.ApplyOverride(
			fmt.Sprintf("max_pending=%d", 100*(i+1)),
			fmt.Sprintf("show_line=%t", i%2 == 0),
			fmt.Sprintf("chronological_batches=%t", i%3 != 0),
		)
		if err != nil {
			fmt.Printf("Override error: %v\n", err)
		}
		// Minimal delay between reconfigurations
		time.Sleep(10 * time.Millisecond)
	}

	// Fixed keys are refused on a running tracer
	if err := tr.ApplyOverride("mode=sync"); err != nil {
		fmt.Printf("Expected refusal: %v\n", err)
	}

	time.Sleep(500 * time.Millisecond)
	close(stop)

	if err := tr.Shutdown(time.Second); err != nil {
		fmt.Printf("Shutdown error: %v\n", err)
	}

	stats := tr.Stats()
	fmt.Printf("Total records attempted: %d\n", count.Load())
	fmt.Printf("Written: %d, dropped: %d, lines in sink: %d\n", stats.Dispatched, stats.Dropped, len(buf.Lines()))
}
