// Package watch triggers rebuilds when the model or local content changes.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// DefaultDebounce coalesces editor save bursts into one rebuild.
const DefaultDebounce = 500 * time.Millisecond

// RebuildFunc is invoked after a debounced batch of changes.
type RebuildFunc func(ctx context.Context) error

// Watcher monitors files and directory trees.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]bool
	dirs     []string
	ignore   []string
	debounce time.Duration
	rebuild  RebuildFunc
}

// Options configure a Watcher.
type Options struct {
	// Files are watched individually through their parent directory.
	Files []string
	// Dirs are watched recursively.
	Dirs []string
	// Ignore lists path prefixes whose events are dropped, such as the
	// output and cache directories the rebuild itself writes to.
	Ignore   []string
	Debounce time.Duration
}

// New creates a watcher calling rebuild after changes settle.
func New(opts Options, rebuild RebuildFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create file watcher").Build()
	}
	w := &Watcher{
		watcher:  fw,
		files:    map[string]bool{},
		debounce: opts.Debounce,
		rebuild:  rebuild,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	for _, p := range opts.Ignore {
		if abs, err := filepath.Abs(p); err == nil {
			w.ignore = append(w.ignore, abs)
		}
	}

	for _, f := range opts.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = fw.Close()
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve path").WithContext("path", f).Build()
		}
		w.files[abs] = true
		// the parent directory survives atomic rename-on-save
		if err := fw.Add(filepath.Dir(abs)); err != nil {
			_ = fw.Close()
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to watch directory").WithContext("path", filepath.Dir(abs)).Build()
		}
	}
	for _, d := range opts.Dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			_ = fw.Close()
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve path").WithContext("path", d).Build()
		}
		w.dirs = append(w.dirs, abs)
		if err := w.addTree(abs); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to walk directory").WithContext("path", path).Build()
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to watch directory").WithContext("path", path).Build()
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	for _, p := range w.ignore {
		if path == p || strings.HasPrefix(path, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod || w.ignored(ev.Name) {
		return false
	}
	if w.files[ev.Name] {
		return true
	}
	for _, d := range w.dirs {
		if ev.Name == d || strings.HasPrefix(ev.Name, d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Run blocks until ctx is cancelled, calling the rebuild func once per
// settled batch of changes. Rebuild errors are logged, not returned.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				w.watchNewDir(ev.Name)
			}
			if !w.relevant(ev) {
				continue
			}
			slog.Debug("Change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			timer.Reset(w.debounce)
			timerC = timer.C
		case <-timerC:
			timerC = nil
			slog.Info("Rebuilding after changes")
			if err := w.rebuild(ctx); err != nil {
				slog.Error("Rebuild failed", logfields.Error(err))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

// watchNewDir extends recursive watches to directories created later.
func (w *Watcher) watchNewDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || w.ignored(path) {
		return
	}
	for _, d := range w.dirs {
		if strings.HasPrefix(path, d+string(filepath.Separator)) {
			if err := w.addTree(path); err != nil {
				slog.Warn("Failed to watch new directory", logfields.Path(path), logfields.Error(err))
			}
			return
		}
	}
}
