package kb

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/signalsfoundry/rfvision/internal/logging"
)

// DefaultReloadDebounce is how long a file must be quiet before a reload.
const DefaultReloadDebounce = 200 * time.Millisecond

// Watch reloads the catalog from path whenever the file changes, until ctx
// is cancelled. The parent directory is watched so editors that replace the
// file by rename are picked up. A failed reload keeps the previous contents.
func (c *Catalog) Watch(ctx context.Context, path string, debounce time.Duration, log logging.Logger) error {
	if log == nil {
		log = logging.Noop()
	}
	if debounce <= 0 {
		debounce = DefaultReloadDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	log.Info(ctx, "watching transceiver catalog", logging.String("path", abs))

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

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
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn(ctx, "catalog watcher error", logging.Err(err))

		case <-timer.C:
			n, err := c.LoadFile(abs)
			if err != nil {
				log.Warn(ctx, "catalog reload failed; keeping previous models",
					logging.String("path", abs), logging.Err(err))
				continue
			}
			log.Info(ctx, "catalog reloaded", logging.String("path", abs), logging.Int("count", n))
		}
	}
}
