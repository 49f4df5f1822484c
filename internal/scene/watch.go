package scene

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce absorbs editor save storms (write + chmod + rename in
// quick succession) into one reload.
const reloadDebounce = 100 * time.Millisecond

// Watcher reloads the scene file when it changes on disk. Events are
// debounced per file; the callback runs on the watcher goroutine.
type Watcher struct {
	fsw  *fsnotify.Watcher
	path string

	mu     sync.Mutex
	timer  *time.Timer
	closed bool

	onChange func()
	done     chan struct{}
}

// Watch starts watching path. onChange fires, debounced, after every
// write/create/rename of the file.
func Watch(path string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: many editors replace the file on
	// save, which drops a direct file watch.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		path:     filepath.Clean(path),
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Watch errors are not actionable here; the next successful
			// event still reloads.
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer == nil {
		w.timer = time.AfterFunc(reloadDebounce, w.fire)
		return
	}
	w.timer.Reset(reloadDebounce)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	w.timer = nil
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}
	w.onChange()
}

// Close stops the watcher and cancels any pending reload.
func (w *Watcher) Close() error {
	w.mu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.mu.Unlock()
	err := w.fsw.Close()
	<-w.done
	return err
}
