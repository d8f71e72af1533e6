package trace

import (
	"strconv"
	"strings"
)

// Level is the severity of a record
type Level int64

// Log level constants
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

var levelColors = [...]string{
	LevelDebug: "\x1b[34m",
	LevelInfo:  "\x1b[32m",
	LevelWarn:  "\x1b[33m",
	LevelError: "\x1b[31m",
	LevelFatal: "\x1b[35m",
}

// String returns the upper-case level name
func (l Level) String() string {
	if l.valid() {
		return levelNames[l]
	}
	return "LEVEL(" + strconv.FormatInt(int64(l), 10) + ")"
}

// Color returns the ANSI color sequence used for the level on terminals
func (l Level) Color() string {
	if l.valid() {
		return levelColors[l]
	}
	return ""
}

func (l Level) valid() bool {
	return l >= LevelDebug && l <= LevelFatal
}

// ParseLevel converts a level name to its constant
func ParseLevel(levelStr string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return 0, fmtErrorf("invalid level string: '%s' (use debug, info, warn, error, fatal)", levelStr)
	}
}
