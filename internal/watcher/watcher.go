// Package watcher reports changes to note files using fsnotify.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Op is the kind of change to a note file.
type Op int

const (
	// Modified means the file was created or written.
	Modified Op = iota + 1
	// Removed means the file was deleted or renamed away.
	Removed
)

func (o Op) String() string {
	switch o {
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// FileEvent is a settled change to one file.
type FileEvent struct {
	Path string
	Op   Op
}

// DefaultDebounce is how long a file must be quiet before its change is
// reported. Editors often write a file in several steps.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches directories for changes to files with given extensions.
type Watcher struct {
	watcher    *fsnotify.Watcher
	logger     *zap.Logger
	extensions []string
	debounce   time.Duration
}

// New creates a Watcher. A zero debounce uses DefaultDebounce.
func New(logger *zap.Logger, extensions []string, debounce time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		watcher:    w,
		logger:     logger,
		extensions: extensions,
		debounce:   debounce,
	}, nil
}

// Watch starts monitoring dirs. The returned channel is closed when ctx is
// done or the watcher is stopped.
func (w *Watcher) Watch(ctx context.Context, dirs []string) (<-chan FileEvent, error) {
	for _, dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		w.logger.Debug("watching", zap.String("dir", dir))
	}

	events := make(chan FileEvent, 100)
	go w.run(ctx, events)
	return events, nil
}

func (w *Watcher) run(ctx context.Context, events chan<- FileEvent) {
	defer close(events)

	pending := make(map[string]Op)
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isWatchedExtension(event.Name) {
				continue
			}
			var op Op
			switch {
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				op = Removed
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				op = Modified
			default:
				continue
			}
			pending[event.Name] = op
			timer.Reset(w.debounce)
		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			for _, p := range paths {
				select {
				case events <- FileEvent{Path: p, Op: pending[p]}:
				case <-ctx.Done():
					return
				}
				delete(pending, p)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) isWatchedExtension(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
