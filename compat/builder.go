package compat

import (
	"fmt"

	"github.com/monoview/trace"
)

// Builder provides a flexible way to create configured tracer adapters for gnet and fasthttp
// It can use an existing *trace.Tracer instance or create a new one from a *trace.Config
type Builder struct {
	tracer   *trace.Tracer
	traceCfg *trace.Config
	err      error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithTracer specifies an existing tracer to use for the adapters
// If this is set WithConfig is ignored
func (b *Builder) WithTracer(t *trace.Tracer) *Builder {
	if t == nil {
		b.err = fmt.Errorf("trace/compat: provided tracer cannot be nil")
		return b
	}
	b.tracer = t
	return b
}

// WithConfig provides a configuration for a new tracer instance
// This is used only if an existing tracer is NOT provided via WithTracer
// If neither WithTracer nor WithConfig is used, a default tracer will be created
func (b *Builder) WithConfig(cfg *trace.Config) *Builder {
	b.traceCfg = cfg
	return b
}

// getTracer resolves the tracer to be used, creating one if necessary
func (b *Builder) getTracer() (*trace.Tracer, error) {
	if b.err != nil {
		return nil, b.err
	}

	// An existing tracer was provided, so we use it
	if b.tracer != nil {
		return b.tracer, nil
	}

	cfg := b.traceCfg
	if cfg == nil {
		cfg = trace.DefaultConfig()
	}

	t, err := trace.New(cfg)
	if err != nil {
		return nil, err
	}

	// Cache the newly created tracer for subsequent builds with this builder
	b.tracer = t
	return t, nil
}

// BuildGnet creates a gnet adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	t, err := b.getTracer()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(t, opts...), nil
}

// BuildFastHTTP creates a fasthttp adapter
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	t, err := b.getTracer()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(t, opts...), nil
}

// GetTracer returns the underlying *trace.Tracer instance
// If a tracer has not been provided or created yet, it will be initialized
func (b *Builder) GetTracer() (*trace.Tracer, error) {
	return b.getTracer()
}

// --- Example Usage ---
//
//	tr, err := trace.NewBuilder().LevelString("debug").Stderr(true).Build()
//	if err != nil { /* handle error */ }
//	defer tr.Shutdown()
//
//	builder := compat.NewBuilder().WithTracer(tr)
//
//	gnetLogger, _ := builder.BuildGnet()
//	go gnet.Run(events, "tcp://:9000", gnet.WithLogger(gnetLogger))
//
//	fasthttpLogger, _ := builder.BuildFastHTTP()
//	server := &fasthttp.Server{Handler: handler, Logger: fasthttpLogger}
//	go server.ListenAndServe(":8080")
