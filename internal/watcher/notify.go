package watcher

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// notifyWrites returns a channel that fires when the store file or its WAL
// is written. Without WatchPath, or if fsnotify is unavailable, the
// channel never fires and polling alone drives the loop.
func (w *Watcher) notifyWrites(ctx context.Context) <-chan struct{} {
	wake := make(chan struct{}, 1)
	if w.opts.WatchPath == "" {
		return wake
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("fsnotify unavailable, polling only", zap.Error(err))
		return wake
	}
	dir := filepath.Dir(w.opts.WatchPath)
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		w.logger.Warn("cannot watch store directory, polling only", zap.String("dir", dir), zap.Error(err))
		return wake
	}

	base := filepath.Base(w.opts.WatchPath)
	go func() {
		defer func() { _ = fw.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				name := filepath.Base(ev.Name)
				if name != base && name != base+"-wal" {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				select {
				case wake <- struct{}{}:
				default:
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				w.logger.Debug("fsnotify error", zap.Error(err))
			}
		}
	}()
	return wake
}
