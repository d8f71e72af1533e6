// FILE: monoview/trace/watch.go
package trace

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchConfig reloads the runtime keys of the tracer whenever the TOML file
// at path is written or replaced. The watch ends when ctx is cancelled.
// Reload failures keep the previous configuration and are reported through
// the internal error channel.
func (t *Tracer) WatchConfig(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmtErrorf("failed to create config watcher: %w", err)
	}

	// Watch the directory: editors and config managers replace files by rename
	cleanPath := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(cleanPath)); err != nil {
		_ = watcher.Close()
		return fmtErrorf("failed to watch '%s': %w", filepath.Dir(cleanPath), err)
	}

	eventsCh := watcher.Events
	errorsCh := watcher.Errors

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-eventsCh:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != cleanPath {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				t.reloadConfig(cleanPath)

			case err, ok := <-errorsCh:
				if !ok {
					return
				}
				t.internalLog("config watcher error: %v\n", err)
			}
		}
	}()

	return nil
}

// reloadConfig loads path and applies it, leaving the tracer untouched on failure
func (t *Tracer) reloadConfig(path string) {
	cfg, err := NewConfigFromFile(path)
	if err != nil {
		t.internalLog("failed to reload config from %s: %v\n", path, err)
		return
	}
	if err := t.Reconfigure(cfg); err != nil {
		t.internalLog("failed to apply reloaded config: %v\n", err)
	}
}
