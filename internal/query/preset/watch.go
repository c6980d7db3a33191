package preset

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the registry's user presets whenever path changes. It blocks
// until ctx is done. Load errors are logged and the previous preset set kept.
func Watch(ctx context.Context, r *Registry, path string, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory, not the file: editors replace files on save and
	// the inode-level watch would be lost.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				if err := LoadInto(r, path); err != nil {
					logger.Error("presets reload failed", "file", path, "error", err)
					return
				}
				logger.Info("presets reloaded", "file", path)
			})

		case err := <-watcher.Errors:
			logger.Error("presets watcher error", "error", err)
		}
	}
}
