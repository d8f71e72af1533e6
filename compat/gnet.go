package compat

import (
	"fmt"
	"os"
	"time"

	"github.com/panjf2000/gnet/v2/pkg/logging"

	"github.com/monoview/trace"
)

var _ logging.Logger = (*GnetAdapter)(nil)

// GnetAdapter wraps trace.Tracer to implement gnet logging.Logger interface
type GnetAdapter struct {
	tracer       *trace.Tracer
	fatalHandler func(msg string) // Customizable fatal behavior
}

// NewGnetAdapter creates a new gnet-compatible tracer adapter
func NewGnetAdapter(tracer *trace.Tracer, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		tracer: tracer,
		fatalHandler: func(msg string) {
			os.Exit(1) // Default behavior matches gnet expectations
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// Debugf traces at debug level with printf-style formatting
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.tracer.Logf(trace.LevelDebug, 1, format, args...)
}

// Infof traces at info level with printf-style formatting
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.tracer.Logf(trace.LevelInfo, 1, format, args...)
}

// Warnf traces at warn level with printf-style formatting
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.tracer.Logf(trace.LevelWarn, 1, format, args...)
}

// Errorf traces at error level with printf-style formatting
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.tracer.Logf(trace.LevelError, 1, format, args...)
}

// Fatalf traces at fatal level and triggers fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	a.tracer.Logf(trace.LevelFatal, 1, format, args...)

	// Ensure the record is written before exit
	_ = a.tracer.Flush(100 * time.Millisecond)

	if a.fatalHandler != nil {
		a.fatalHandler(fmt.Sprintf(format, args...))
	}
}
