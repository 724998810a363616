package upload

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/askdata/internal/client"
	"github.com/leapstack-labs/askdata/pkg/core"
)

// DefaultDebounce is how long a file must stay quiet before it is dropped on the zone.
const DefaultDebounce = 100 * time.Millisecond

// DropResult reports the outcome of one watched-folder drop.
type DropResult struct {
	Path    string
	Dataset *core.Dataset
	Err     error
}

// Watcher turns files appearing in a folder into drops on an upload zone.
type Watcher struct {
	dir      string
	zone     *Controller
	debounce time.Duration
	logger   *slog.Logger
	onResult func(DropResult)
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithWatchLogger sets the watcher's logger.
func WithWatchLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithResultHandler registers a callback for every completed drop.
func WithResultHandler(fn func(DropResult)) WatcherOption {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// NewWatcher creates a watcher for dir that drops files on zone.
func NewWatcher(dir string, zone *Controller, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		dir:      dir,
		zone:     zone,
		debounce: DefaultDebounce,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. Only .csv and .json files are picked up.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching folder for uploads", "dir", w.dir)

	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
		wg      sync.WaitGroup
	)
	defer func() {
		mu.Lock()
		for _, t := range pending {
			if t.Stop() {
				wg.Done()
			}
		}
		mu.Unlock()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !w.wants(event.Name) {
				continue
			}

			path := event.Name
			mu.Lock()
			if t, ok := pending[path]; ok && t.Stop() {
				wg.Done()
			}
			wg.Add(1)
			var timer *time.Timer
			timer = time.AfterFunc(w.debounce, func() {
				defer wg.Done()
				mu.Lock()
				if pending[path] == timer {
					delete(pending, path)
				}
				mu.Unlock()
				w.drop(ctx, path)
			})
			pending[path] = timer
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) wants(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return false
	}
	return client.Accepts(base)
}

func (w *Watcher) drop(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}

	res := DropResult{Path: path}
	file, closeFn, err := client.OpenFile(path)
	if err != nil {
		res.Err = err
	} else {
		res.Dataset, res.Err = w.zone.Drop(ctx, file)
		_ = closeFn()
	}

	if res.Err != nil {
		w.logger.Warn("watched upload failed", "path", path, "error", res.Err)
	}
	if w.onResult != nil {
		w.onResult(res)
	}
}
