// FILE: monoview/trace/formatter/formatter.go
// Package formatter renders trace records into bounded lines.
//
// A rendered line has the shape
//
//	[YYYY-MM-DD HH:MM:SS.mmm] LEVEL file:func:line: message
//
// where the timestamp and each location part are optional. The formatter
// holds no per-call state, so a single instance is shared by every producer.
package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/monoview/trace/sanitizer"
)

// Field flags selecting the optional parts of a line
const (
	FlagFile uint32 = 1 << iota
	FlagFunc
	FlagLine
	FlagTime
)

// DefaultTimestampFormat renders local time with millisecond precision
const DefaultTimestampFormat = "2006-01-02 15:04:05.000"

// ColorReset ends a colored span
const ColorReset = "\x1b[0m"

// Span is the byte range [Start, End) of a field inside a rendered line
type Span struct {
	Start int
	End   int
}

// Empty reports whether the span covers no bytes
func (s Span) Empty() bool {
	return s.End <= s.Start
}

// Location identifies the call site of a record
type Location struct {
	File string
	Func string
	Line int
}

// Formatter renders records. Configure it before sharing; rendering never mutates it.
type Formatter struct {
	sanitizer       *sanitizer.Sanitizer
	timestampFormat string
	dumper          *spew.ConfigState
}

// New creates a formatter with the provided sanitizer
func New(s ...*sanitizer.Sanitizer) *Formatter {
	var san *sanitizer.Sanitizer
	if len(s) > 0 && s[0] != nil {
		san = s[0]
	} else {
		san = sanitizer.New() // Default passthrough sanitizer
	}
	return &Formatter{
		sanitizer:       san,
		timestampFormat: DefaultTimestampFormat,
		dumper: &spew.ConfigState{
			Indent:                  "  ",
			DisablePointerAddresses: true,
			DisableCapacities:       true,
			SortKeys:                true,
		},
	}
}

// TimestampFormat sets the timestamp layout
func (f *Formatter) TimestampFormat(format string) *Formatter {
	if format != "" {
		f.timestampFormat = format
	}
	return f
}

// Sanitizing reports whether message and location text are filtered
func (f *Formatter) Sanitizing() bool {
	return !f.sanitizer.Passthrough()
}

// Header writes the timestamp, level and location prefix and returns the span of the level field
func (f *Formatter) Header(dst *Line, flags uint32, ts time.Time, level string, loc Location) Span {
	if flags&FlagTime != 0 {
		dst.WriteByte('[')
		dst.AppendTime(ts, f.timestampFormat)
		dst.WriteString("] ")
	}

	span := Span{Start: dst.Len()}
	// Fixed five character level field, right aligned
	for pad := 5 - len(level); pad > 0; pad-- {
		dst.WriteByte(' ')
	}
	dst.WriteString(level)
	span.End = dst.Len()
	dst.WriteByte(' ')

	located := false
	if flags&FlagFile != 0 {
		f.writeText(dst, loc.File)
		located = true
	}
	if flags&FlagFunc != 0 {
		if located {
			dst.WriteByte(':')
		}
		f.writeText(dst, loc.Func)
		located = true
	}
	if flags&FlagLine != 0 {
		if located {
			dst.WriteByte(':')
		}
		dst.AppendInt(int64(loc.Line))
		located = true
	}
	if located {
		dst.WriteString(": ")
	}
	return span
}

// Message writes the printf-style message
func (f *Formatter) Message(dst *Line, format string, args []any) {
	if !f.Sanitizing() {
		fmt.Fprintf(dst, format, args...)
		return
	}
	// Render bounded, then filter. Sanitized output may only grow so the cut is safe.
	raw := fmt.Appendf(make([]byte, 0, dst.Limit()), format, args...)
	if len(raw) > dst.Limit() {
		raw = raw[:dst.Limit()]
	}
	dst.Write(f.sanitizer.Append(nil, string(raw)))
}

// Dump writes label followed by a multi-line dump of v
func (f *Formatter) Dump(dst *Line, label string, v any) {
	if label != "" {
		f.writeText(dst, label)
		dst.WriteString(":\n")
	}
	dst.WriteString(strings.TrimSuffix(f.dumper.Sdump(v), "\n"))
}

// Format renders a complete unterminated line and returns the span of the level field
func (f *Formatter) Format(dst *Line, flags uint32, ts time.Time, level string, loc Location, format string, args []any) Span {
	span := f.Header(dst, flags, ts, level, loc)
	f.Message(dst, format, args)
	return span
}

func (f *Formatter) writeText(dst *Line, s string) {
	if !f.Sanitizing() {
		dst.WriteString(s)
		return
	}
	dst.Write(f.sanitizer.Append(nil, s))
}

// Colorize writes line to a fresh slice in scratch with the span wrapped in color and ColorReset
func Colorize(scratch []byte, line []byte, span Span, color string) []byte {
	if span.Empty() || color == "" || span.End > len(line) {
		return append(scratch[:0], line...)
	}
	out := append(scratch[:0], line[:span.Start]...)
	out = append(out, color...)
	out = append(out, line[span.Start:span.End]...)
	out = append(out, ColorReset...)
	out = append(out, line[span.End:]...)
	return out
}
