// FILE: monoview/trace/record.go
package trace

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/monoview/trace/formatter"
	"github.com/monoview/trace/sink"
)

// logRecord is one rendered line. Records come from a pool; the async stack
// links them through next.
type logRecord struct {
	level Level
	line  *formatter.Line
	span  formatter.Span // Level field, colored on terminal sinks
	next  *logRecord
}

// newRecord takes a cleared record from the pool
func (t *Tracer) newRecord(level Level) *logRecord {
	rec := t.records.Get().(*logRecord)
	rec.level = level
	rec.line.Reset(t.maxEntryLen)
	rec.span = formatter.Span{}
	rec.next = nil
	return rec
}

// releaseRecord returns rec to the pool
func (t *Tracer) releaseRecord(rec *logRecord) {
	rec.next = nil
	t.records.Put(rec)
}

// log renders and dispatches one record, skipping the threshold check
func (t *Tracer) log(level Level, loc formatter.Location, format string, args []any) {
	if t.state.ShutdownCalled.Load() {
		return
	}
	t.state.Submitted.Add(1)

	rec := t.newRecord(level)
	f := t.formatter.Load()
	rec.span = f.Format(rec.line, uint32(t.flags.Load()), time.Now(), level.String(), loc, format, args)
	t.finish(rec)
}

// dump renders a value dump record
func (t *Tracer) dump(level Level, loc formatter.Location, label string, v any) {
	if t.state.ShutdownCalled.Load() {
		return
	}
	t.state.Submitted.Add(1)

	rec := t.newRecord(level)
	f := t.formatter.Load()
	rec.span = f.Header(rec.line, uint32(t.flags.Load()), time.Now(), level.String(), loc)
	f.Dump(rec.line, label, v)
	t.finish(rec)
}

func (t *Tracer) finish(rec *logRecord) {
	if rec.line.Truncated() {
		t.state.Truncated.Add(1)
	}
	rec.line.Terminate()
	t.dispatcher.dispatch(rec)
}

// writeRecord fans rec out to every sink: one write and one flush per sink.
// scratch holds the colored copy and belongs to the caller.
func (t *Tracer) writeRecord(rec *logRecord, scratch *[]byte) {
	t.registry.each(func(s sink.Sink) {
		out := rec.line.Bytes()
		if sink.IsColored(s) {
			*scratch = formatter.Colorize(*scratch, out, rec.span, rec.level.Color())
			out = *scratch
		}
		if _, err := s.Write(out); err != nil {
			t.state.SinkErrors.Add(1)
			t.internalLog("failed to write record to sink %T: %v\n", s, err)
			return
		}
		if err := s.Flush(); err != nil {
			t.state.SinkErrors.Add(1)
			t.internalLog("failed to flush sink %T: %v\n", s, err)
		}
	})
	t.state.Dispatched.Add(1)
}

// internalLog handles writing internal tracer diagnostics to stderr, if enabled.
func (t *Tracer) internalLog(format string, args ...any) {
	cfg := t.getConfig()
	if !cfg.InternalErrorsToStderr {
		return
	}

	// Ensure consistent "trace: " prefix
	if !strings.HasPrefix(format, "trace: ") {
		format = "trace: " + format
	}

	fmt.Fprintf(os.Stderr, format, args...)
}
