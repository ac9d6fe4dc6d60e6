// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package assets

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher reloads assets of a Library when their files
// change in a watched directory.
type Watcher struct {
	library *Library
	dir     string
	logger  logrus.FieldLogger
	watcher *fsnotify.Watcher

	// OnReload is called after an asset was reloaded successfully.
	OnReload func(name string)
}

// NewWatcher starts watching dir. Names reported to the Library
// are relative to dir.
func NewWatcher(library *Library, dir string, logger logrus.FieldLogger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		library: library,
		dir:     dir,
		logger:  logger.WithField("watch", dir),
		watcher: fw,
	}, nil
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Error("file watcher")
		}
	}
}

// Close stops the watcher, Run returns after.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	rel, err := filepath.Rel(w.dir, event.Name)
	if err != nil {
		return
	}
	name := filepath.ToSlash(rel)
	if !w.library.Loaded(name) {
		return
	}
	if err := w.library.Reload(name); err != nil {
		return
	}
	if w.OnReload != nil {
		w.OnReload(name)
	}
}
