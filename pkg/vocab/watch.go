package vocab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for further writes before reloading.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc receives every successfully parsed revision of a watched vocabulary.
type ReloadFunc func(ctx context.Context, idx *Index) error

// Watcher reloads a vocabulary file when it changes on disk. A revision
// that fails to load or whose ReloadFunc fails is reported and skipped;
// the caller keeps whatever it installed last.
type Watcher struct {
	path     string
	reload   ReloadFunc
	onError  func(error)
	debounce time.Duration
	logger   *slog.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithErrorHandler is called for every failed reload.
func WithErrorHandler(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

// WithWatcherLogger sets the logger.
func WithWatcherLogger(l *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher creates a watcher for a vocabulary file. Embedded
// vocabularies cannot change and are rejected.
func NewWatcher(path string, reload ReloadFunc, opts ...WatcherOption) (*Watcher, error) {
	if strings.HasPrefix(path, BuiltinPrefix) {
		return nil, fmt.Errorf("cannot watch embedded vocabulary %q", path)
	}
	if reload == nil {
		return nil, errors.New("reload func is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	w := &Watcher{
		path:     abs,
		reload:   reload,
		debounce: DefaultDebounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is cancelled. The parent directory is watched
// rather than the file so that editors replacing the file by rename are seen.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info("watching vocabulary", "path", w.path, "debounce", w.debounce)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("vocabulary changed", "op", event.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)

		case <-timer.C:
			w.load(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) load(ctx context.Context) {
	idx, err := Load(w.path)
	if err == nil {
		err = w.reload(ctx, idx)
	}
	if err != nil {
		w.logger.Warn("vocabulary reload skipped", "path", w.path, "error", err)
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	stats := idx.Stats()
	w.logger.Info("vocabulary reloaded",
		"path", w.path,
		"classes", stats.Classes,
		"object_properties", stats.ObjectProperties,
		"data_properties", stats.DataProperties)
}
