// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shader

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"cogentcore.org/vision/base/errors"
	"cogentcore.org/vision/base/session"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the default time a burst of file
// events must be quiet before it is delivered.
const DefaultDebounce = time.Second

// Watcher watches a directory tree for written files, delivering
// the changed paths of each burst of events as one batch.
type Watcher struct {
	Root     string
	Debounce time.Duration

	fsw    *fsnotify.Watcher
	events chan []string
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// Watch starts watching root and all of its subdirectories.
// A zero debounce uses [DefaultDebounce].
func Watch(root string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.EPath(errors.IO, "watch", root, err)
	}
	w := &Watcher{Root: root, Debounce: debounce, fsw: fsw, events: make(chan []string, 1), done: make(chan struct{})}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, errors.EPath(errors.IO, "watch", root, err)
	}
	w.wg.Add(1)
	go w.run()
	slog.Info("watching shaders", "root", root, "debounce", debounce)
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run() {
	defer w.wg.Done()
	timer := time.NewTimer(w.Debounce)
	timer.Stop()
	var pending []string
	for {
		select {
		case <-w.done:
			timer.Stop()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.handle(ev) {
				continue
			}
			if !slices.Contains(pending, ev.Name) {
				pending = append(pending, ev.Name)
			}
			timer.Reset(w.Debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("shader watcher", "err", err)
		case <-timer.C:
			w.deliver(pending)
			pending = nil
		}
	}
}

// handle returns whether the event is a file change to deliver,
// adding newly created directories to the watch.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			errors.Log(w.addTree(ev.Name))
			return false
		}
	}
	return true
}

// deliver sends a batch, merging it into any batch not yet taken.
func (w *Watcher) deliver(batch []string) {
	if len(batch) == 0 {
		return
	}
	select {
	case old := <-w.events:
		for _, p := range old {
			if !slices.Contains(batch, p) {
				batch = append(batch, p)
			}
		}
	default:
	}
	slog.Debug("shader files changed", "files", batch)
	w.events <- batch
}

// Events returns the channel of changed path batches.
func (w *Watcher) Events() <-chan []string { return w.events }

// Poll returns the pending batch of changed paths without blocking.
func (w *Watcher) Poll() ([]string, bool) {
	select {
	case b := <-w.events:
		return b, true
	default:
		return nil, false
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		err = errors.Join(err, session.Join(&w.wg, "shader watcher", 0))
	})
	return err
}
