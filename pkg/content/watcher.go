package content

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/codewithjohnson/folio/pkg/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last filesystem
// event before reloading.
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc is called with the fresh posts after every successful reload.
type ReloadFunc func(posts []Post)

// Watcher reloads a Library whenever files under the content root change.
type Watcher struct {
	lib      *Library
	dir      string
	debounce time.Duration
	onReload ReloadFunc
	logger   *log.Logger
}

// NewWatcher creates a watcher for the library's content directory.
func NewWatcher(lib *Library, onReload ReloadFunc) *Watcher {
	dir := ""
	if lib.loader != nil {
		dir = lib.loader.Dir()
	}
	return &Watcher{
		lib:      lib,
		dir:      dir,
		debounce: DefaultDebounce,
		onReload: onReload,
		logger:   log.ForService("watcher"),
	}
}

// SetDebounce overrides the debounce window.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w.dir == "" {
		return fmt.Errorf("watcher: library has no content directory")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer func() {
		if err := fw.Close(); err != nil {
			w.logger.Warnf("closing file watcher: %v", err)
		}
	}()

	if err := w.addTree(fw, w.dir); err != nil {
		return err
	}
	w.logger.Infof("watching %s for content changes", w.dir)

	loopCtx, cancel := context.WithCancel(ctx)
	loop := newReloadLoop(w.reload)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		loop.run(loopCtx)
	}()

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		cancel()
		<-loopDone
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) {
				continue
			}
			w.logger.Debugf("change detected: %s (%s)", event.Name, event.Op)

			if event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := w.addTree(fw, event.Name); err != nil {
					w.logger.Warnf("watching new directory %s: %v", event.Name, err)
				}
			}

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, loop.trigger)
			mu.Unlock()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Errorf("watcher error: %v", err)
		}
	}
}

// reloadLoop runs reloads one at a time on its own goroutine, so an older
// snapshot can never be installed after a newer one. Triggers that arrive
// while a reload runs collapse into a single follow-up reload.
type reloadLoop struct {
	pending chan struct{}
	reload  func()
}

func newReloadLoop(reload func()) *reloadLoop {
	return &reloadLoop{pending: make(chan struct{}, 1), reload: reload}
}

func (l *reloadLoop) trigger() {
	select {
	case l.pending <- struct{}{}:
	default:
	}
}

func (l *reloadLoop) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.pending:
			if ctx.Err() != nil {
				return
			}
			l.reload()
		}
	}
}

func (w *Watcher) reload() {
	posts, err := w.lib.Reload()
	if err != nil {
		w.logger.Errorf("reloading content, keeping previous posts: %v", err)
		return
	}
	w.logger.Infof("content reloaded: %d posts", len(posts))
	if w.onReload != nil {
		w.onReload(posts)
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warnf("walking %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if err := fw.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
