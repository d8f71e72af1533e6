// FILE: monoview/trace/override.go
package trace

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyOverride applies string key-value overrides to the tracer's current configuration.
// Each override should be in the format "key=value".
// The configuration is cloned before modification, then applied with Reconfigure.
//
// Example:
//
//	tr, _ := trace.New(nil)
//	err := tr.ApplyOverride(
//	    "level=debug",
//	    "show_file=true",
//	    "max_pending=4096",
//	)
func (t *Tracer) ApplyOverride(overrides ...string) error {
	cfg := t.GetConfig()
	if err := cfg.Apply(overrides...); err != nil {
		return err
	}
	return t.Reconfigure(cfg)
}

// Apply applies "key=value" overrides to c in place
func (c *Config) Apply(overrides ...string) error {
	var errors []error

	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errors = append(errors, err)
			continue
		}

		if err := applyConfigField(c, key, value); err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return combineConfigErrors(errors)
	}
	return nil
}

// Reconfigure validates cfg and applies its runtime keys: level, show_*,
// timestamp_format, max_pending, chronological_batches, sanitize and
// internal_errors_to_stderr.
// Changing a key fixed at construction is an error and leaves the tracer untouched.
func (t *Tracer) Reconfigure(cfg *Config) error {
	if cfg == nil {
		return fmtErrorf("configuration cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return fmtErrorf("invalid configuration: %w", err)
	}

	t.initMu.Lock()
	defer t.initMu.Unlock()

	if keys := t.getConfig().changedFixedKeys(cfg); len(keys) > 0 {
		return fmtErrorf("cannot change %s on a running tracer", strings.Join(keys, ", "))
	}
	t.applyRuntimeConfig(cfg.Clone())
	return nil
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errors []error) error {
	if len(errors) == 0 {
		return nil
	}
	if len(errors) == 1 {
		return errors[0]
	}

	var sb strings.Builder
	sb.WriteString("trace: multiple configuration errors:")
	for i, err := range errors {
		// Remove "trace: " prefix from individual errors to avoid duplication
		errMsg := strings.TrimPrefix(err.Error(), "trace: ")
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, errMsg))
	}
	return fmt.Errorf("%s", sb.String())
}

// applyConfigField applies a single key-value override to a Config.
// This is the core field mapping logic for string overrides.
func applyConfigField(cfg *Config, key, value string) error {
	switch key {
	// Basic settings
	case "level":
		// Accept both named and numeric values
		if numVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			lvl := Level(numVal)
			if !lvl.valid() {
				return fmtErrorf("invalid level value '%s'", value)
			}
			cfg.Level = strings.ToLower(lvl.String())
		} else {
			if _, err := ParseLevel(value); err != nil {
				return fmtErrorf("invalid level value '%s': %w", value, err)
			}
			cfg.Level = strings.ToLower(value)
		}
	case "mode":
		cfg.Mode = value

	// Line fields
	case "show_timestamp":
		return parseBoolField(&cfg.ShowTimestamp, key, value)
	case "show_file":
		return parseBoolField(&cfg.ShowFile, key, value)
	case "show_func":
		return parseBoolField(&cfg.ShowFunc, key, value)
	case "show_line":
		return parseBoolField(&cfg.ShowLine, key, value)
	case "timestamp_format":
		cfg.TimestampFormat = value

	// Buffer and size limits
	case "max_entry_len":
		return parseIntField(&cfg.MaxEntryLen, key, value)
	case "max_pending":
		return parseIntField(&cfg.MaxPending, key, value)

	// Async ordering
	case "chronological_batches":
		return parseBoolField(&cfg.ChronologicalBatches, key, value)

	// Standard sinks
	case "stdout":
		return parseBoolField(&cfg.Stdout, key, value)
	case "stderr":
		return parseBoolField(&cfg.Stderr, key, value)
	case "file":
		cfg.File = value
	case "color":
		cfg.Color = value

	// Content filtering
	case "sanitize":
		return parseBoolField(&cfg.Sanitize, key, value)

	// Heartbeat configuration
	case "heartbeat_interval_s":
		return parseIntField(&cfg.HeartbeatIntervalS, key, value)

	// Internal error handling
	case "internal_errors_to_stderr":
		return parseBoolField(&cfg.InternalErrorsToStderr, key, value)

	default:
		return fmtErrorf("unknown configuration key '%s'", key)
	}

	return nil
}

func parseBoolField(dst *bool, key, value string) error {
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return fmtErrorf("invalid boolean value for %s '%s': %w", key, value, err)
	}
	*dst = boolVal
	return nil
}

func parseIntField(dst *int64, key, value string) error {
	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmtErrorf("invalid integer value for %s '%s': %w", key, value, err)
	}
	*dst = intVal
	return nil
}
