package classify

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the keyword file into target whenever it changes. The parent
// directory is watched so editors that replace the file by rename are seen.
// A file that fails to parse leaves the previous lists in place.
func Watch(ctx context.Context, path string, target *Reloadable, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("keyword-watcher")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	go func() {
		defer watcher.Close()
		clean := filepath.Clean(path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != clean {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				kw, err := LoadKeywords(path)
				if err != nil {
					logger.Warn("keyword reload failed, keeping previous lists", zap.String("path", path), zap.Error(err))
					continue
				}
				target.Swap(kw)
				logger.Info("keywords reloaded",
					zap.String("path", path),
					zap.Int("positive", len(kw.Positive)),
					zap.Int("negative", len(kw.Negative)))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher error", zap.Error(err))
			}
		}
	}()

	return nil
}
