package settings

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchSettle = 100 * time.Millisecond

// Watch calls fn with freshly loaded settings whenever either settings file
// changes on disk. Bursts of events within a short window produce one reload.
// Watch blocks until ctx is done.
func (f *FileStore) Watch(ctx context.Context, fn func(Settings)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(f.store.Dir()); err != nil {
		return err
	}
	if f.log != nil {
		f.log.Debug("settings watch start")
	}

	timer := time.NewTimer(watchSettle)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if f.log != nil {
				f.log.Debug("settings watch stop")
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			switch filepath.Base(event.Name) {
			case APIKeysFile, CustomModelsFile:
			default:
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			timer.Reset(watchSettle)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if f.log != nil {
				f.log.Warn("settings watch error", "err", err)
			}
		case <-timer.C:
			loaded, err := f.Load()
			if err != nil {
				if f.log != nil {
					f.log.Warn("settings reload failed", "err", err)
				}
				continue
			}
			if f.log != nil {
				f.log.Info("settings reloaded", "providers", len(loaded.APIKeys), "custom_models", len(loaded.CustomModels))
			}
			fn(loaded)
		}
	}
}
