package main

import (
	"context"
	"encoding/json"

	"github.com/valyala/fasthttp"

	"github.com/monoview/trace"
	"github.com/monoview/trace/compat"
)

type statusResponse struct {
	Submitted  uint64 `json:"submitted"`
	Dispatched uint64 `json:"dispatched"`
	Dropped    uint64 `json:"dropped"`
	Discarded  uint64 `json:"discarded"`
	Truncated  uint64 `json:"truncated"`
	SinkErrors uint64 `json:"sink_errors"`
	Batches    uint64 `json:"batches"`
	Pending    int64  `json:"pending"`
	UptimeS    int64  `json:"uptime_s"`
	Level      string `json:"level"`
}

func statusHandler(tr *trace.Tracer) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if string(ctx.Path()) != "/stats" {
			ctx.Error("not found", fasthttp.StatusNotFound)
			return
		}
		stats := tr.Stats()
		body, err := json.Marshal(statusResponse{
			Submitted:  stats.Submitted,
			Dispatched: stats.Dispatched,
			Dropped:    stats.Dropped,
			Discarded:  stats.Discarded,
			Truncated:  stats.Truncated,
			SinkErrors: stats.SinkErrors,
			Batches:    stats.Batches,
			Pending:    stats.Pending,
			UptimeS:    int64(stats.Uptime.Seconds()),
			Level:      tr.Level().String(),
		})
		if err != nil {
			ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
			return
		}
		ctx.SetContentType("application/json")
		ctx.SetBody(body)
	}
}

// serveStatus runs the status endpoint until ctx is cancelled
func serveStatus(ctx context.Context, addr string, tr *trace.Tracer) error {
	server := &fasthttp.Server{
		Handler: statusHandler(tr),
		Logger:  compat.NewFastHTTPAdapter(tr),
		Name:    "relay",
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return server.Shutdown()
	}
}
