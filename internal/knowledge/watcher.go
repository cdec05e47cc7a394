package knowledge

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const reloadSettleDelay = 150 * time.Millisecond

// Watcher reloads a knowledge file into a Store whenever the file changes.
// A document that fails validation is logged and ignored.
type Watcher struct {
	path     string
	store    *Store
	logger   *logrus.Logger
	watcher  *fsnotify.Watcher
	reloaded chan *KnowledgeBase
}

func NewWatcher(path string, store *Store, logger *logrus.Logger) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("knowledge watcher: path is required")
	}
	if store == nil {
		return nil, fmt.Errorf("knowledge watcher: store is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	absolute, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge watcher: resolve path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("knowledge watcher: %w", err)
	}

	return &Watcher{
		path:     absolute,
		store:    store,
		logger:   logger,
		watcher:  watcher,
		reloaded: make(chan *KnowledgeBase, 1),
	}, nil
}

// Reloaded delivers successfully installed bases. The channel holds at most
// one pending value and it is always the newest, so slow readers skip
// intermediate bases.
func (w *Watcher) Reloaded() <-chan *KnowledgeBase {
	return w.reloaded
}

// Start watches the file's directory so that editors replacing the file via
// rename are still observed. It returns once the watch is registered.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("knowledge watcher: watch %s: %w", filepath.Dir(w.path), err)
	}

	go w.loop(ctx)
	return nil
}

func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			_ = w.watcher.Close()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			settle = time.After(reloadSettleDelay)
		case <-settle:
			settle = nil
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("knowledge watcher error")
		}
	}
}

func (w *Watcher) reload() {
	next, err := LoadFile(w.path)
	if err != nil {
		w.logger.WithError(err).WithField("path", w.path).Error("knowledge reload rejected; keeping active base")
		return
	}

	previous, err := w.store.Replace(next)
	if err != nil {
		w.logger.WithError(err).Error("knowledge reload failed")
		return
	}

	w.logger.WithFields(logrus.Fields{
		"path":             w.path,
		"conditions":       next.Len(),
		"version":          next.Version(),
		"previous_version": previous.Version(),
	}).Info("knowledge base reloaded")

	w.publish(next)
}

// publish replaces any unread base with next. Only the watch loop sends.
func (w *Watcher) publish(next *KnowledgeBase) {
	select {
	case <-w.reloaded:
	default:
	}
	select {
	case w.reloaded <- next:
	default:
	}
}
