package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports edits to scenario scripts. Directories are watched rather
// than files so editors that replace the file on save are still seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	paths    map[string]string // absolute -> as given
	debounce time.Duration
	logger   *slog.Logger
}

func NewWatcher(paths []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{watcher: fw, paths: make(map[string]string), debounce: debounce, logger: logger}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		w.paths[abs] = p
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return w, nil
}

func (w *Watcher) Close() error { return w.watcher.Close() }

// Run calls fn once per burst of changes to each watched script until ctx is
// canceled. fn runs on the caller's goroutine.
func (w *Watcher) Run(ctx context.Context, fn func(path string)) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			name, watched := w.paths[filepath.Clean(ev.Name)]
			if !watched {
				continue
			}
			if ev.Op&fsnotify.Remove != 0 {
				w.logger.Warn("scenario removed", "file", name)
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("scenario changed", "file", name, "op", ev.Op.String())
			pending[name] = true
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("scenario watcher error", "error", err)
		case <-timer.C:
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			clear(pending)
			for _, name := range names {
				fn(name)
			}
		}
	}
}
