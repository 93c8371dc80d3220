package watch

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kurtosis-tech/stacktrace"
)

const (
	// DefaultDebounce is the delay after the last filesystem event before a
	// rebuild runs. Editors often write a file in several steps, so a burst
	// of events collapses into one rebuild.
	DefaultDebounce = 400 * time.Millisecond
)

// Watcher runs a callback whenever the files under a directory tree change.
// Callbacks never overlap and run on the goroutine that called Run.
type Watcher struct {
	dirpath  string
	onChange func(ctx context.Context)
	debounce time.Duration
	ignored  []string
	logger   *slog.Logger

	// onReady runs once the initial watches are in place.
	onReady func()
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger used for watch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithIgnored excludes events at or under the given paths. Used to keep the
// writer's own manifest and backups from retriggering a rebuild.
func WithIgnored(paths ...string) Option {
	return func(w *Watcher) {
		for _, p := range paths {
			w.ignored = append(w.ignored, filepath.Clean(p))
		}
	}
}

// New creates a Watcher for the tree rooted at dirpath.
func New(dirpath string, onChange func(ctx context.Context), opts ...Option) *Watcher {
	w := &Watcher{
		dirpath:  filepath.Clean(dirpath),
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. It returns nil on cancellation and an
// error only when the watch cannot be established.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return stacktrace.Propagate(err, "failed to create filesystem watcher")
	}
	defer watcher.Close()

	if err := w.addTree(watcher, w.dirpath); err != nil {
		return stacktrace.Propagate(err, "failed to watch '%s'", w.dirpath)
	}
	w.logger.Info("watching for changes", "dir", w.dirpath)
	if w.onReady != nil {
		w.onReady()
	}

	// fire has room for one pending rebuild; further timer firings while a
	// rebuild is queued are dropped.
	fire := make(chan struct{}, 1)
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case <-fire:
			w.logger.Debug("change settled, rebuilding")
			w.onChange(ctx)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if w.isIgnored(event.Name) {
				continue
			}
			w.logger.Debug("filesystem event", "path", event.Name, "op", event.Op.String())

			// New directories need their own watch; fsnotify is not recursive.
			if event.Has(fsnotify.Create) {
				if err := w.addTree(watcher, event.Name); err != nil {
					w.logger.Warn("failed to watch new path", "path", event.Name, "error", err)
				}
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("filesystem watcher error", "error", watchErr)
		}
	}
}

// addTree adds a watch for dirpath and every directory beneath it. Paths
// that are not directories, or that vanished already, are skipped.
func (w *Watcher) addTree(watcher *fsnotify.Watcher, dirpath string) error {
	return filepath.WalkDir(dirpath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dirpath && path == w.dirpath {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.isIgnored(path) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return stacktrace.Propagate(err, "failed to add watch for '%s'", path)
		}
		return nil
	})
}

// isIgnored reports whether path is one of the ignored paths or lies under
// one of them. Editor swap and backup files are ignored too.
func (w *Watcher) isIgnored(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasPrefix(base, ".#") {
		return true
	}
	for _, ignored := range w.ignored {
		rel, err := filepath.Rel(ignored, path)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}
