// FILE: monoview/trace/context.go
package trace

import (
	"context"
)

type contextKey struct{}

// NewContext returns a copy of ctx carrying t
func NewContext(ctx context.Context, t *Tracer) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the tracer stored in ctx, or nil
func FromContext(ctx context.Context) *Tracer {
	t, _ := ctx.Value(contextKey{}).(*Tracer)
	return t
}
