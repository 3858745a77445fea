package watch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"building-converter/internal/common/logging"
)

// Watch calls rebuild every time the document at path is written or
// recreated, until ctx is done. The parent directory is watched so editors
// that replace the file on save are seen too. Rebuild failures are logged
// and do not stop the watch.
func Watch(ctx context.Context, path string, rebuild func(context.Context) error) error {
	log := logging.FromContext(ctx)

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	log.Info("watching document", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Info("document changed", "path", abs, "op", event.Op.String())
			if err := rebuild(ctx); err != nil {
				log.Error("rebuild failed", "error", err)
			} else {
				log.Info("rebuild complete")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", "error", err)
		}
	}
}
