package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// watchSettle is how long a file must stay quiet before a change is reported. Editors and
// exporters often write a file in several chunks.
const watchSettle = 200 * time.Millisecond

// watchFiles calls onChange with the watched files that were written or replaced since the
// last call. onChange runs on the calling goroutine, so runs never overlap. It returns when ctx
// is cancelled.
func watchFiles(ctx context.Context, paths []string, logger *zap.SugaredLogger, onChange func(changed []string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Parent directories are watched so atomic saves (write temp file, rename over) are seen.
	watched := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve path: %w", err)
		}
		watched[abs] = true
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", abs, err)
		}
		logger.Infow("watching for changes", "path", abs)
	}

	settle := time.NewTimer(watchSettle)
	settle.Stop()
	var pending []string

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(event.Name)
			if !watched[name] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debugw("file event", "path", name, "op", event.Op.String())
			if !slices.Contains(pending, name) {
				pending = append(pending, name)
			}
			settle.Reset(watchSettle)

		case <-settle.C:
			if len(pending) == 0 {
				continue
			}
			changed := pending
			pending = nil
			onChange(changed)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Errorw("watcher error", "error", err)
		}
	}
}
