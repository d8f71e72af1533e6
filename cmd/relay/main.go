// Command relay accepts newline-delimited text over TCP and traces every line.
// Network event loops hand lines to a single consumer through a bounded queue,
// so a slow sink applies backpressure to the readers instead of growing memory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/monoview/trace"
	"github.com/monoview/trace/queue"
)

type options struct {
	listen        string
	status        string
	configPath    string
	queueCapacity int
	overrides     []string
	multicore     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Trace newline-delimited text received over TCP",
		Long: `relay listens for TCP connections and writes every received line as a
trace record. Connection events are traced too. A status endpoint reports
the tracer counters as JSON.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.listen, "listen", "tcp://127.0.0.1:9000", "Ingest address in gnet protocol form")
	cmd.Flags().StringVar(&opts.status, "status", "127.0.0.1:9001", "Status endpoint address, empty to disable")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "TOML file with a [trace] table, watched for changes")
	cmd.Flags().IntVar(&opts.queueCapacity, "queue-capacity", 1024, "Ring capacity of the hand-off queue")
	cmd.Flags().StringArrayVar(&opts.overrides, "set", nil, "Tracer override as key=value, repeatable")
	cmd.Flags().BoolVar(&opts.multicore, "multicore", true, "Run one event loop per CPU")

	return cmd
}

func run(ctx context.Context, opts *options) error {
	cfg := trace.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := trace.NewConfigFromFile(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg.Stderr = true
	}
	if err := cfg.Apply(opts.overrides...); err != nil {
		return err
	}

	tr, err := trace.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	defer func() {
		if err := tr.Shutdown(5 * time.Second); err != nil {
			fmt.Fprintf(os.Stderr, "tracer shutdown: %v\n", err)
		}
	}()

	if opts.configPath != "" {
		if err := tr.WatchConfig(ctx, opts.configPath); err != nil {
			return err
		}
	}

	q, err := queue.New[queue.Message](opts.queueCapacity)
	if err != nil {
		return err
	}
	defer q.Destroy()

	g, gctx := errgroup.WithContext(ctx)

	// Single consumer; the only goroutine that traces ingested lines
	g.Go(func() error {
		consume(q, tr)
		return nil
	})

	server := newIngestServer(q, tr)
	g.Go(func() error {
		defer q.Push(queue.Message{Kind: kindStop})
		return server.serve(gctx, opts.listen, opts.multicore)
	})

	if opts.status != "" {
		g.Go(func() error {
			return serveStatus(gctx, opts.status, tr)
		})
	}

	return g.Wait()
}
