// FILE: monoview/trace/config.go
package trace

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/lixenwraith/config"

	"github.com/monoview/trace/formatter"
)

// Config holds all tracer configuration values
type Config struct {
	// Basic settings
	Level string `toml:"level"` // "debug", "info", "warn", "error" or "fatal"
	Mode  string `toml:"mode"`  // "sync" or "async", fixed for the tracer's life

	// Line fields
	ShowTimestamp bool `toml:"show_timestamp"`
	ShowFile      bool `toml:"show_file"`
	ShowFunc      bool `toml:"show_func"`
	ShowLine      bool `toml:"show_line"`

	TimestampFormat string `toml:"timestamp_format"` // Go time layout for the timestamp field

	// Buffer and size limits
	MaxEntryLen int64 `toml:"max_entry_len"` // Line capacity including the terminator
	MaxPending  int64 `toml:"max_pending"`   // Async records waiting for the worker, 0 = unbounded

	// Async ordering
	ChronologicalBatches bool `toml:"chronological_batches"` // Deliver each drained batch oldest first

	// Standard sinks opened at construction
	Stdout bool   `toml:"stdout"`
	Stderr bool   `toml:"stderr"`
	File   string `toml:"file"`  // Append to this path, closed by Shutdown
	Color  string `toml:"color"` // "auto", "always" or "never" for console sinks

	// Content filtering
	Sanitize bool `toml:"sanitize"` // Hex-encode non-printable runes in messages and locations

	// Heartbeat configuration
	HeartbeatIntervalS int64 `toml:"heartbeat_interval_s"` // Interval seconds for heartbeat, 0 = disabled

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"` // Write internal errors to stderr
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	// Basic settings
	Level: "info",
	Mode:  string(ModeAsync),

	// Line fields
	ShowTimestamp: true,
	ShowFile:      false,
	ShowFunc:      false,
	ShowLine:      false,

	TimestampFormat: formatter.DefaultTimestampFormat,

	// Buffer and size limits
	MaxEntryLen: DefaultMaxEntryLen,
	MaxPending:  0,

	// Async ordering
	ChronologicalBatches: true,

	// Standard sinks
	Stdout: false,
	Stderr: false,
	File:   "",
	Color:  ColorAuto,

	// Content filtering
	Sanitize: false,

	// Heartbeat settings
	HeartbeatIntervalS: 0,

	// Internal error handling
	InternalErrorsToStderr: false,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	// Create a copy to prevent modifications to the original
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads configuration from a TOML file and returns a validated Config.
// Keys live under the [trace] table. A missing file yields the defaults.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Use lixenwraith/config as a loader
	loader := config.New()

	// Register the struct to enable proper unmarshaling
	if err := loader.RegisterStruct("trace.", *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	// Load from file (handles file not found gracefully)
	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	// Extract values into our Config struct
	if err := extractConfig(loader, "trace.", cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	// Apply overrides using reflection
	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// extractConfig extracts values from lixenwraith/config into our Config struct
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		// Get the toml tag to determine the config key
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue // Use default value
		}

		if err := setFieldValue(fieldValue, val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}

	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}

	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}

		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		case float64:
			// TOML decoders may hand back whole numbers as floats
			if v != float64(int64(v)) {
				return fmt.Errorf("expected integer, got %v", v)
			}
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Level); err != nil {
		return err
	}

	switch Mode(c.Mode) {
	case ModeSync, ModeAsync:
	default:
		return fmtErrorf("invalid mode: '%s' (use sync or async)", c.Mode)
	}

	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmtErrorf("invalid color: '%s' (use auto, always or never)", c.Color)
	}

	if strings.TrimSpace(c.TimestampFormat) == "" {
		return fmtErrorf("timestamp_format cannot be empty")
	}

	if c.File != "" && strings.TrimSpace(c.File) == "" {
		return fmtErrorf("file path cannot be blank")
	}

	// Numeric validations
	if c.MaxEntryLen < minEntryLen {
		return fmtErrorf("max_entry_len must be at least %d: %d", minEntryLen, c.MaxEntryLen)
	}
	if c.MaxEntryLen > maxEntryLen {
		return fmtErrorf("max_entry_len must be at most %d: %d", maxEntryLen, c.MaxEntryLen)
	}

	if c.MaxPending < 0 {
		return fmtErrorf("max_pending cannot be negative: %d", c.MaxPending)
	}

	if c.HeartbeatIntervalS < 0 {
		return fmtErrorf("heartbeat_interval_s cannot be negative: %d", c.HeartbeatIntervalS)
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// flags derives the line field bit-set
func (c *Config) flags() Flag {
	var flags Flag
	if c.ShowTimestamp {
		flags |= FlagTime
	}
	if c.ShowFile {
		flags |= FlagFile
	}
	if c.ShowFunc {
		flags |= FlagFunc
	}
	if c.ShowLine {
		flags |= FlagLine
	}
	return flags
}

// setFlags is the inverse of flags
func (c *Config) setFlags(flags Flag) {
	c.ShowTimestamp = flags&FlagTime != 0
	c.ShowFile = flags&FlagFile != 0
	c.ShowFunc = flags&FlagFunc != 0
	c.ShowLine = flags&FlagLine != 0
}

// level returns the parsed threshold, assuming a validated config
func (c *Config) level() Level {
	lvl, _ := ParseLevel(c.Level)
	return lvl
}

// changedFixedKeys lists the construction-time keys that differ in next
func (c *Config) changedFixedKeys(next *Config) []string {
	var keys []string
	if c.Mode != next.Mode {
		keys = append(keys, "mode")
	}
	if c.MaxEntryLen != next.MaxEntryLen {
		keys = append(keys, "max_entry_len")
	}
	if c.Stdout != next.Stdout {
		keys = append(keys, "stdout")
	}
	if c.Stderr != next.Stderr {
		keys = append(keys, "stderr")
	}
	if c.File != next.File {
		keys = append(keys, "file")
	}
	if c.Color != next.Color {
		keys = append(keys, "color")
	}
	if c.HeartbeatIntervalS != next.HeartbeatIntervalS {
		keys = append(keys, "heartbeat_interval_s")
	}
	return keys
}
