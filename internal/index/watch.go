package index

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates callers' cached view of a project when its
// work-items directory changes. It is a convenience layer over the
// staleness oracle, not a replacement: IsStale remains authoritative,
// and a caller that never watches simply polls. If the underlying
// watcher cannot be created the constructor fails and the caller falls
// back to polling.
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Watch starts watching the project directory. onChange is called from
// the watcher goroutine for every create, write, remove, or rename of a
// record file; it should be fast (typically it just flips a flag or
// enqueues a refresh).
func (p *Project) Watch(onChange func(filename string)) (*Watcher, error) {
	fsWatcher, newErr := fsnotify.NewWatcher()
	if newErr != nil {
		return nil, fmt.Errorf("creating watcher: %w", newErr)
	}

	addErr := fsWatcher.Add(p.dir)
	if addErr != nil {
		_ = fsWatcher.Close()

		return nil, fmt.Errorf("watching %s: %w", p.dir, addErr)
	}

	w := &Watcher{watcher: fsWatcher, done: make(chan struct{})}

	go w.loop(onChange)

	return w, nil
}

func (w *Watcher) loop(onChange func(filename string)) {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			name := filepath.Base(event.Name)
			if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".md") {
				continue
			}

			onChange(name)
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; staleness polling still works.
		}
	}
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	closeErr := w.watcher.Close()
	<-w.done

	return closeErr
}
