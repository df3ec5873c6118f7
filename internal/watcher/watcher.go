// Package watcher parses media files as they appear in watched
// directories.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Nomadcxx/animeparse/internal/logging"
	"github.com/fsnotify/fsnotify"
)

type EventType string

const (
	EventCreate EventType = "create"
	EventWrite  EventType = "write"
	EventMove   EventType = "move"
	EventDelete EventType = "delete"
)

type FileEvent struct {
	Type EventType
	Path string
}

type Handler interface {
	HandleFileEvent(event FileEvent) error
	IsMediaFile(path string) bool
}

type Watcher struct {
	fsWatcher *fsnotify.Watcher
	handler   Handler
	recursive bool
	logger    *logging.Logger
}

type Option func(*Watcher)

func WithRecursive(recursive bool) Option {
	return func(w *Watcher) {
		w.recursive = recursive
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

func NewWatcher(handler Handler, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		handler:   handler,
		recursive: true,
		logger:    logging.Nop(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		if w.recursive {
			if err := w.addRecursive(path); err != nil {
				return err
			}
			continue
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return fmt.Errorf("unable to watch %s: %w", path, err)
		}
		w.logger.Info("watcher", "Watching", logging.F("path", path))
	}
	return nil
}

// WatchList returns the directories currently watched.
func (w *Watcher) WatchList() []string {
	return w.fsWatcher.WatchList()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("unable to watch %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return fmt.Errorf("unable to watch %s: %w", path, err)
		}
		w.logger.Info("watcher", "Watching", logging.F("path", path))
		return nil
	})
}

// Start processes events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("watcher", "Watcher started", logging.F("dirs", len(w.fsWatcher.WatchList())))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if w.recursive && !strings.HasPrefix(filepath.Base(event.Name), ".") {
						if err := w.addRecursive(event.Name); err != nil {
							w.logger.Warn("watcher", "Unable to watch new directory",
								logging.F("path", event.Name), logging.F("error", err.Error()))
						}
						w.scanNewDir(event.Name)
					}
					continue
				}
			}

			if err := w.handleEvent(event); err != nil {
				w.logger.Error("watcher", "Error handling event", err, logging.F("path", event.Name))
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("watcher", "Watcher error", err)
		}
	}
}

// scanNewDir reports files that landed in a directory before it was
// added to the watch list, e.g. a directory moved in whole.
func (w *Watcher) scanNewDir(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if err := w.handleEvent(fsnotify.Event{Name: path, Op: fsnotify.Create}); err != nil {
			w.logger.Error("watcher", "Error handling event", err, logging.F("path", path))
		}
		return nil
	})
}

func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

func (w *Watcher) handleEvent(event fsnotify.Event) error {
	if !w.handler.IsMediaFile(event.Name) {
		return nil
	}

	eventType := EventCreate
	switch {
	case event.Has(fsnotify.Write):
		eventType = EventWrite
	case event.Has(fsnotify.Rename):
		eventType = EventMove
	case event.Has(fsnotify.Remove):
		eventType = EventDelete
	case event.Has(fsnotify.Chmod):
		return nil
	}

	w.logger.Debug("watcher", "Event",
		logging.F("type", eventType),
		logging.F("file", filepath.Base(event.Name)))

	return w.handler.HandleFileEvent(FileEvent{Type: eventType, Path: event.Name})
}
