// FILE: monoview/trace/formatter/line.go
package formatter

import (
	"strconv"
	"time"
	"unicode/utf8"
)

// Line is a fixed-capacity byte builder. Writes past the limit are cut
// silently and remembered in Truncated. The limit is one byte short of the
// capacity so Terminate can always append the line terminator.
type Line struct {
	buf       []byte
	limit     int
	truncated bool
}

// NewLine creates a builder holding at most capacity-1 content bytes plus a terminator
func NewLine(capacity int) *Line {
	l := &Line{}
	l.Reset(capacity)
	return l
}

// Reset empties the line and resizes it when capacity differs from the current one
func (l *Line) Reset(capacity int) {
	if capacity < 2 {
		capacity = 2
	}
	if cap(l.buf) != capacity {
		l.buf = make([]byte, 0, capacity)
	}
	l.buf = l.buf[:0]
	l.limit = capacity - 1
	l.truncated = false
}

// Write implements io.Writer. It never fails and always reports len(p)
// so fmt keeps going once the limit is hit.
func (l *Line) Write(p []byte) (int, error) {
	l.append(p)
	return len(p), nil
}

// WriteString appends s up to the limit, reporting len(s) like Write
func (l *Line) WriteString(s string) (int, error) {
	n := len(s)
	room := l.limit - len(l.buf)
	if len(s) > room {
		s = s[:max(room, 0)]
		l.truncated = true
	}
	l.buf = append(l.buf, s...)
	return n, nil
}

// WriteByte appends c if there is room
func (l *Line) WriteByte(c byte) error {
	if len(l.buf) >= l.limit {
		l.truncated = true
		return nil
	}
	l.buf = append(l.buf, c)
	return nil
}

// WriteRune appends the UTF-8 encoding of r if it fits whole
func (l *Line) WriteRune(r rune) (int, error) {
	var tmp [utf8.UTFMax]byte
	n := utf8.EncodeRune(tmp[:], r)
	l.append(tmp[:n])
	return n, nil
}

// AppendInt appends the decimal form of n
func (l *Line) AppendInt(n int64) {
	var tmp [24]byte
	l.append(strconv.AppendInt(tmp[:0], n, 10))
}

// AppendTime appends t rendered with layout
func (l *Line) AppendTime(t time.Time, layout string) {
	var tmp [64]byte
	l.append(t.AppendFormat(tmp[:0], layout))
}

func (l *Line) append(p []byte) {
	room := l.limit - len(l.buf)
	if len(p) > room {
		p = p[:max(room, 0)]
		l.truncated = true
	}
	l.buf = append(l.buf, p...)
}

// Terminate appends a newline. It is the only write allowed to use the reserved byte.
func (l *Line) Terminate() {
	if len(l.buf) < cap(l.buf) {
		l.buf = append(l.buf, '\n')
	}
}

// Bytes returns the content. The slice aliases the builder and is valid until the next Reset.
func (l *Line) Bytes() []byte {
	return l.buf
}

// Len returns the number of content bytes
func (l *Line) Len() int {
	return len(l.buf)
}

// Limit returns the maximum number of content bytes
func (l *Line) Limit() int {
	return l.limit
}

// Truncated reports whether any write was cut
func (l *Line) Truncated() bool {
	return l.truncated
}
