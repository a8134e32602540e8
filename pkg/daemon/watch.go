package daemon

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const configDebounce = 500 * time.Millisecond

// watchConfig calls reload after the file at path changes on disk. The parent
// directory is watched so editors that replace the file are picked up too.
// Bursts of events within configDebounce cause a single reload. It blocks
// until ctx is done.
func watchConfig(ctx context.Context, path string, reload func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create config watcher")
	}
	defer w.Close()

	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return pkgerrors.Wrapf(err, "failed to watch %s", filepath.Dir(path))
	}
	logrus.WithField("path", path).Debug("watching config file")

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() { stopTimer(timer) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(configDebounce)
			} else {
				stopTimer(timer)
				timer.Reset(configDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			reload()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logrus.WithError(err).Warn("config watcher error")
		}
	}
}
