package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the config file whenever it changes and calls onChange
// with the new settings. Reloads that fail to parse or validate are
// logged and skipped; the previous settings stay in effect. Watch blocks
// until the context is cancelled.
//
// The parent directory is watched rather than the file itself, so
// editors that replace the file via rename are still observed.
func Watch(ctx context.Context, path string, onChange func(Settings)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching config directory: %w", err)
	}

	baseName := filepath.Base(abs)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != baseName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			s, err := Load(abs)
			if err != nil {
				slog.Warn("config reload failed", "path", abs, "error", err)
				continue
			}
			if err := s.Validate(); err != nil {
				slog.Warn("config reload rejected", "path", abs, "error", err)
				continue
			}
			onChange(s)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Usually recoverable; keep watching.
			slog.Warn("config watcher error", "error", err)
		}
	}
}
