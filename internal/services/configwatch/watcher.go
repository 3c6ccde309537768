// Package configwatch reloads config.json when it is edited outside the app.
package configwatch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/zai-usage-tui/internal/config"
	"github.com/j-veylop/zai-usage-tui/internal/logger"
)

// DefaultDebounce collapses the burst of events an editor or atomic rename produces.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches the directory holding the config file and calls onChange
// with the reloaded Config after writes settle.
type Watcher struct {
	store         *config.Store
	watcher       *fsnotify.Watcher
	onChange      func(config.Config)
	stopChan      chan struct{}
	debounceTimer *time.Timer
	debounce      time.Duration
	mu            sync.Mutex
	closeOnce     sync.Once
}

// New starts watching store's file.
func New(store *config.Store, onChange func(config.Config)) (*Watcher, error) {
	return newWatcher(store, onChange, DefaultDebounce)
}

func newWatcher(store *config.Store, onChange func(config.Config), debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory so atomic replacements are seen.
	dir := filepath.Dir(store.Path())
	if err := fw.Add(dir); err != nil {
		if closeErr := fw.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, err
	}

	w := &Watcher{
		store:    store,
		watcher:  fw,
		onChange: onChange,
		stopChan: make(chan struct{}),
		debounce: debounce,
	}
	go w.watchLoop()
	return w, nil
}

func (w *Watcher) watchLoop() {
	name := filepath.Base(w.store.Path())
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.mu.Lock()
			if w.debounceTimer != nil {
				w.debounceTimer.Stop()
			}
			w.debounceTimer = time.AfterFunc(w.debounce, w.reload)
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Config watcher error", "error", err)

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) reload() {
	select {
	case <-w.stopChan:
		return
	default:
	}
	cfg, err := w.store.Read()
	if err != nil {
		// Mid-write or deleted; the next event will retry.
		logger.Debug("Ignoring unreadable config change", "error", err)
		return
	}
	logger.Info("Config file changed", "path", w.store.Path())
	w.onChange(w.store.WithOverrides(cfg))
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.stopChan)
		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}
