// Command stress floods an async tracer from many goroutines and checks that
// every record is accounted for as written, dropped or discarded.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/monoview/trace"
)

var levels = []trace.Level{
	trace.LevelDebug,
	trace.LevelInfo,
	trace.LevelWarn,
	trace.LevelError,
}

// countingSink counts lines instead of storing them
type countingSink struct {
	lines atomic.Uint64
	bytes atomic.Uint64
}

func (c *countingSink) Write(p []byte) (int, error) {
	c.lines.Add(1)
	c.bytes.Add(uint64(len(p)))
	return len(p), nil
}

func (c *countingSink) Flush() error { return nil }

func generateRandomMessage(size int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "
	var sb strings.Builder
	sb.Grow(size)
	for i := 0; i < size; i++ {
		sb.WriteByte(chars[rand.Intn(len(chars))])
	}
	return sb.String()
}

// burst traces n records of random level and size
func burst(ctx context.Context, tr *trace.Tracer, worker, n, maxMessageSize int) error {
	for i := 0; i < n; i++ {
		if i%64 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		level := levels[rand.Intn(len(levels))]
		msg := generateRandomMessage(rand.Intn(maxMessageSize) + 10)
		tr.Trace(level, "stress", "burst", worker, "wkr=%d seq=%d %s", worker, i, msg)
	}
	return nil
}

func main() {
	workers := flag.Int("workers", 64, "Producer goroutines")
	perWorker := flag.Int("records", 5000, "Records per producer")
	maxMessageSize := flag.Int("max-size", 1000, "Upper bound of random message size")
	maxPending := flag.Int64("max-pending", 0, "Async backlog limit, 0 = unbounded")
	stopEarly := flag.Bool("stop", false, "Stop the worker right after producing instead of flushing")
	logDir := flag.String("dir", "", "Also write records to stress.log in this directory")
	flag.Parse()

	fmt.Println("--- Tracer Stress Test ---")

	counter := &countingSink{}
	cfg := trace.DefaultConfig()
	cfg.Level = "debug"
	cfg.MaxPending = *maxPending
	cfg.HeartbeatIntervalS = 1
	cfg.InternalErrorsToStderr = true
	if *logDir != "" {
		cfg.File = filepath.Join(*logDir, "stress.log")
	}

	tr, err := trace.New(cfg, counter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create tracer: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting: %d workers, %d records each, max_pending=%d\n", *workers, *perWorker, *maxPending)
	fmt.Println("Press Ctrl+C to stop early.")

	startTime := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < *workers; w++ {
		g.Go(func() error {
			return burst(gctx, tr, w, *perWorker, *maxMessageSize)
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Printf("\n[Signal Received] Producers halted: %v\n", err)
	}
	produced := time.Since(startTime)

	if *stopEarly {
		err = tr.Stop()
	} else {
		err = tr.Flush(30 * time.Second)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Drain error: %v\n", err)
	}
	drained := time.Since(startTime)

	if err := tr.Shutdown(10 * time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "Tracer shutdown error: %v\n", err)
	}

	stats := tr.Stats()
	fmt.Printf("\n--- Test Finished ---\n")
	fmt.Printf("Produced in %v, drained in %v\n", produced.Round(time.Millisecond), drained.Round(time.Millisecond))
	fmt.Printf("submitted=%d dispatched=%d dropped=%d discarded=%d truncated=%d batches=%d\n",
		stats.Submitted, stats.Dispatched, stats.Dropped, stats.Discarded, stats.Truncated, stats.Batches)
	fmt.Printf("sink lines=%d bytes=%d\n", counter.lines.Load(), counter.bytes.Load())
	if drained.Seconds() > 0 {
		fmt.Printf("Approximate records/sec: %.2f\n", float64(stats.Dispatched)/drained.Seconds())
	}

	// Heartbeat records are submitted too and land in the same counters
	if stats.Submitted != stats.Dispatched+stats.Dropped+stats.Discarded {
		fmt.Fprintf(os.Stderr, "MISMATCH: %d submitted but %d accounted for\n",
			stats.Submitted, stats.Dispatched+stats.Dropped+stats.Discarded)
		os.Exit(1)
	}
	if counter.lines.Load() != stats.Dispatched {
		fmt.Fprintf(os.Stderr, "MISMATCH: sink saw %d lines, %d dispatched\n", counter.lines.Load(), stats.Dispatched)
		os.Exit(1)
	}
	fmt.Println("All records accounted for.")
}
