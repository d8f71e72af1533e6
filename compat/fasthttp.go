// FILE: monoview/trace/compat/fasthttp.go
package compat

import (
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/monoview/trace"
)

var _ fasthttp.Logger = (*FastHTTPAdapter)(nil)

// FastHTTPAdapter wraps trace.Tracer to implement fasthttp Logger interface
type FastHTTPAdapter struct {
	tracer        *trace.Tracer
	defaultLevel  trace.Level
	levelDetector func(string) (trace.Level, bool) // Detects the level from message content
}

// NewFastHTTPAdapter creates a new fasthttp-compatible tracer adapter
func NewFastHTTPAdapter(tracer *trace.Tracer, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		tracer:        tracer,
		defaultLevel:  trace.LevelInfo,
		levelDetector: DetectLevel,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultLevel sets the level used when nothing is detected
func WithDefaultLevel(level trace.Level) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultLevel = level
	}
}

// WithLevelDetector sets a custom function to detect the level from message content.
// A nil detector always uses the default level.
func WithLevelDetector(detector func(string) (trace.Level, bool)) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.levelDetector = detector
	}
}

// Printf implements fasthttp's Logger interface
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	// Detect level from message content
	level := a.defaultLevel
	if a.levelDetector != nil {
		if detected, ok := a.levelDetector(msg); ok {
			level = detected
		}
	}
	a.tracer.Logf(level, 1, "%s", msg)
}

// DetectLevel guesses a level from keywords in msg
func DetectLevel(msg string) (trace.Level, bool) {
	msgLower := strings.ToLower(msg)

	// Check for error indicators
	if strings.Contains(msgLower, "error") ||
		strings.Contains(msgLower, "failed") ||
		strings.Contains(msgLower, "fatal") ||
		strings.Contains(msgLower, "panic") {
		return trace.LevelError, true
	}

	// Check for warning indicators
	if strings.Contains(msgLower, "warn") ||
		strings.Contains(msgLower, "deprecated") {
		return trace.LevelWarn, true
	}

	// Check for debug indicators
	if strings.Contains(msgLower, "debug") ||
		strings.Contains(msgLower, "trace") {
		return trace.LevelDebug, true
	}

	return trace.LevelInfo, false
}
