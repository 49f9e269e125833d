package hostadapter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// PathResolver turns a filesystem package directory into the Go import
// path OnTransform expects, mirroring cli.ModuleResolver.BuildPackagePath
// without hostadapter depending on the cli package.
type PathResolver func(packageDir string) (string, error)

// Watcher drives an Adapter off real filesystem events, the concrete
// counterpart to the host contract's on_hot_update hook.
type Watcher struct {
	fsw      *fsnotify.Watcher
	adapter  Adapter
	resolve  PathResolver
	watching map[string]bool
}

func NewWatcher(adapter Adapter, resolve PathResolver) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("hostadapter: creating watcher: %w", err)
	}
	return &Watcher{fsw: fsw, adapter: adapter, resolve: resolve, watching: map[string]bool{}}, nil
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// AddRoot registers dir and every subdirectory it currently contains for
// watching. New subdirectories created later are picked up as they're
// observed being written into an already-watched parent.
func (w *Watcher) AddRoot(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		if w.watching[path] {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("hostadapter: watching %s: %w", path, err)
		}
		w.watching[path] = true
		return nil
	})
}

// Run processes filesystem events until the watcher is closed. Intended to
// run in its own goroutine; errors from a single event are reported but
// don't stop the loop, matching the host contract's expectation that a
// watcher stays alive across transient filesystem noise. onChange fires
// once per event that was actually applied to the adapter, so a caller can
// debounce or immediately regenerate.
func (w *Watcher) Run(onError func(error), onChange func()) {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			applied, err := w.handle(event)
			if err != nil && onError != nil {
				onError(err)
			}
			if applied && onChange != nil {
				onChange()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}

// handle applies one filesystem event to the adapter. The returned bool
// reports whether the adapter's state actually changed, so Run knows
// whether onChange should fire. A newly created directory is added to the
// watch instead.
func (w *Watcher) handle(event fsnotify.Event) (bool, error) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			return false, w.AddRoot(event.Name)
		}
	}

	if !strings.HasSuffix(event.Name, ".go") || strings.HasSuffix(event.Name, "_test.go") {
		return false, nil
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.adapter.OnHotUpdate(event.Name, true)
		return true, nil
	}

	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false, nil
	}

	source, err := os.ReadFile(event.Name)
	if err != nil {
		if os.IsNotExist(err) {
			w.adapter.OnHotUpdate(event.Name, true)
			return true, nil
		}
		return false, fmt.Errorf("hostadapter: reading %s: %w", event.Name, err)
	}

	packageDir := filepath.Dir(event.Name)
	importPath, err := w.resolve(packageDir)
	if err != nil {
		return false, fmt.Errorf("hostadapter: resolving import path for %s: %w", packageDir, err)
	}

	w.adapter.OnHotUpdate(event.Name, false)
	if err := w.adapter.OnTransform(event.Name, importPath, string(source)); err != nil {
		return false, err
	}
	return true, nil
}
