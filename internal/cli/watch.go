package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce groups the burst of events editors emit for one save.
const debounce = 200 * time.Millisecond

// Watch runs fn once and again every time one of paths changes, until ctx is done.
// Errors from fn are reported on w and do not stop the watcher.
func Watch(ctx context.Context, w io.Writer, logger *slog.Logger, paths []string, fn func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	// Directories are watched instead of files so renames on save are seen.
	watched := make(map[string]bool)
	targets := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = true
		dir := filepath.Dir(abs)
		if watched[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watched[dir] = true
	}

	run := func() {
		if err := fn(); err != nil {
			printSystemMessage(w, "error: %v", err)
		}
	}
	run()

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !targets[ev.Name] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			logger.Debug("Change detected", "file", ev.Name, "op", ev.Op.String())
			timer = time.After(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "err", err)
		case <-timer:
			timer = nil
			printSystemMessage(w, "Change detected, re-running...")
			run()
		}
	}
}
