// Package watch delivers change notifications for a fixed set of files.
package watch

import (
	"github.com/fsnotify/fsnotify"
)

// Watcher reports write and create events for the watched paths. Other
// event kinds (chmod, remove, rename) are filtered out.
type Watcher struct {
	w      *fsnotify.Watcher
	Events chan string // paths that changed
	Errors chan error
	done   chan struct{}
}

// New starts watching the given paths.
func New(paths ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		w:      fw,
		Events: make(chan string, 128),
		Errors: make(chan error, 1),
		done:   make(chan struct{}),
	}
	for _, p := range paths {
		if err := fw.Add(p); err != nil {
			fw.Close()
			return nil, err
		}
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.w.Events:
			if !ok {
				close(w.Events)
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			select {
			case w.Events <- ev.Name:
			case <-w.done:
				return
			}
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher. The Events channel is not drained; callers
// should stop reading from it after Close returns.
func (w *Watcher) Close() error {
	close(w.done)
	return w.w.Close()
}
