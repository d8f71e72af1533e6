// FILE: monoview/trace/constant.go
package trace

import (
	"github.com/monoview/trace/formatter"
)

// Record flags selecting the optional fields of a rendered line
const (
	FlagFile    = Flag(formatter.FlagFile)
	FlagFunc    = Flag(formatter.FlagFunc)
	FlagLine    = Flag(formatter.FlagLine)
	FlagTime    = Flag(formatter.FlagTime)
	FlagAll     = FlagFile | FlagFunc | FlagLine | FlagTime
	FlagDefault = FlagTime
)

// Delivery modes
const (
	ModeSync  Mode = "sync"
	ModeAsync Mode = "async"
)

// Color modes for console sinks opened from configuration
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Line limits
const (
	// DefaultMaxEntryLen is the line capacity including the terminator
	DefaultMaxEntryLen = 512
	// minEntryLen keeps room for the level field and a few message bytes
	minEntryLen = 16
	// maxEntryLen bounds the per-record buffer every pooled record allocates
	maxEntryLen = 1 << 20
)

// Flag is a bit-set of optional line fields
type Flag uint32

// Mode selects the delivery strategy of a Tracer
type Mode string
