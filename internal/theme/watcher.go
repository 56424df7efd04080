package theme

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"sitebuilder-backend/pkg/logger"
)

const reloadDebounce = 150 * time.Millisecond

// Watcher reloads a template when files in its directory change.
type Watcher struct {
	watcher  *fsnotify.Watcher
	manager  *Manager
	onReload func(slug string)
	done     chan struct{}

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher watches every directory under the manager's base directory.
// onReload, when non-nil, runs after a template has been reloaded.
func NewWatcher(manager *Manager, onReload func(slug string)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fsWatcher,
		manager:  manager,
		onReload: onReload,
		done:     make(chan struct{}),
		timers:   make(map[string]*time.Timer),
	}

	if err := w.addDirectoryRecursive(manager.BaseDir()); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	return w, nil
}

func (w *Watcher) addDirectoryRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Start begins watching for file changes.
func (w *Watcher) Start() {
	go func() {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handle(event)

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				logger.Error(err, "Template watcher error", nil)

			case <-w.done:
				return
			}
		}
	}()
}

// Stop stops the watcher and cancels pending reloads.
func (w *Watcher) Stop() error {
	close(w.done)
	w.mu.Lock()
	for slug, timer := range w.timers {
		timer.Stop()
		delete(w.timers, slug)
	}
	w.mu.Unlock()
	return w.watcher.Close()
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addDirectoryRecursive(event.Name); err != nil {
				logger.Error(err, "Failed to watch new template directory", map[string]interface{}{"path": event.Name})
			}
		}
	}

	slug := w.templateSlug(event.Name)
	if slug == "" {
		return
	}
	w.schedule(slug)
}

// templateSlug maps a changed path to the template directory containing it.
func (w *Watcher) templateSlug(path string) string {
	rel, err := filepath.Rel(w.manager.BaseDir(), path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) == 0 || strings.HasPrefix(parts[0], ".") {
		return ""
	}
	return strings.ToLower(parts[0])
}

// schedule coalesces bursts of events (editors often write a file several
// times per save) into one reload per template.
func (w *Watcher) schedule(slug string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[slug]; ok {
		timer.Reset(reloadDebounce)
		return
	}
	w.timers[slug] = time.AfterFunc(reloadDebounce, func() {
		w.mu.Lock()
		delete(w.timers, slug)
		w.mu.Unlock()

		if err := w.manager.Reload(slug); err != nil {
			logger.Error(err, "Template reload failed", map[string]interface{}{"template": slug})
			return
		}
		if w.onReload != nil {
			w.onReload(slug)
		}
	})
}
