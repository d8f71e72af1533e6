// FILE: utility.go
package trace

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"
)

// Sentinel errors
var (
	ErrNotFound          = errors.New("trace: sink not registered")
	ErrNilSink           = errors.New("trace: sink cannot be nil")
	ErrSinkNotComparable = errors.New("trace: sink type is not comparable")
	ErrShutdown          = errors.New("trace: tracer is shut down")
)

// getCaller returns base file name, short function name and line of the frame skip levels up
func getCaller(skip int) (string, string, int) {
	pc, file, line, ok := runtime.Caller(skip + 1) // +1 for getCaller itself
	if !ok {
		return "???", "???", 0
	}
	fn := "???"
	if f := runtime.FuncForPC(pc); f != nil {
		fn = shortFuncName(f.Name())
	}
	return filepath.Base(file), fn, line
}

// shortFuncName strips the package path and receiver from a fully qualified function name
func shortFuncName(name string) string {
	name = filepath.Base(name)
	parts := strings.Split(name, ".")
	lastPart := parts[len(parts)-1]
	if strings.HasPrefix(lastPart, "func") && len(lastPart) > 4 {
		isAnonymous := true
		for _, r := range lastPart[4:] {
			if !unicode.IsDigit(r) {
				isAnonymous = false
				break
			}
		}
		if isAnonymous && len(parts) > 1 {
			return parts[len(parts)-2]
		}
	}
	return lastPart
}

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "trace: ") {
		format = "trace: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%v; %w", err1, err2)
}

// parseKeyValue splits a "key=value" string.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}
