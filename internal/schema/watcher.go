package schema

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/registra-io/registra/internal/log"
)

// Watcher monitors the schema file for changes and hot-reloads the holder.
// Events are debounced because editors typically produce several writes per
// save.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	holder    *Holder
	reloaded  chan struct{}
	done      chan struct{}
}

// WatchConfig holds watcher configuration options.
type WatchConfig struct {
	Path        string
	DebounceDur time.Duration
}

// DefaultWatchConfig returns sensible defaults for the watcher.
func DefaultWatchConfig(path string) WatchConfig {
	return WatchConfig{
		Path:        path,
		DebounceDur: 1 * time.Second,
	}
}

// NewWatcher creates a schema file watcher bound to a holder.
func NewWatcher(cfg WatchConfig, holder *Holder) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		path:      cfg.Path,
		debounce:  cfg.DebounceDur,
		holder:    holder,
		reloaded:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching the schema file's directory.
// Returns a channel that receives a signal after each successful reload.
func (w *Watcher) Start() (<-chan struct{}, error) {
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}

	go w.loop()

	return w.reloaded, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		var timerC <-chan time.Time
		if timer != nil {
			timerC = timer.C
		}

		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() && pending {
					<-timer.C
				}
				timer.Reset(w.debounce)
			}
			pending = true

		case <-timerC:
			pending = false
			w.reload()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatSchema, "schema watcher error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent reports whether the event touches the schema file itself.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// reload re-parses the file and swaps the holder. A file that fails to
// parse keeps the previous schema active.
func (w *Watcher) reload() {
	s, err := Load(w.path)
	if err != nil {
		log.ErrorErr(log.CatSchema, "schema reload failed, keeping previous schema", err, "path", w.path)
		return
	}
	w.holder.Replace(s)

	select {
	case w.reloaded <- struct{}{}:
	default:
	}
}
