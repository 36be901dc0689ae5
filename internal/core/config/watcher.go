package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"aspectwatch/internal/shared/observability"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc receives either the freshly loaded configuration or the error
// that prevented loading it. Exactly one of the arguments is non-nil.
type ReloadFunc func(*Config, error)

// Watcher monitors a configuration file for changes.
type Watcher struct {
	path     string
	debounce time.Duration
	callback ReloadFunc
	stop     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a new configuration watcher. A non-positive debounce
// falls back to 200ms.
func NewWatcher(path string, debounce time.Duration, callback ReloadFunc) *Watcher {
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	return &Watcher{
		path:     path,
		debounce: debounce,
		callback: callback,
		stop:     make(chan struct{}),
	}
}

// Start begins watching the configuration file.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory to survive atomic saves that replace the file.
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer watcher.Close()

		slog.Info("starting config watcher", "path", w.path, "debounce", w.debounce)

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(w.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				observability.WatcherEventsTotal.Inc()
				w.schedule()

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "error", err)

			case <-w.stop:
				w.cancelTimer()
				return
			case <-ctx.Done():
				w.cancelTimer()
				return
			}
		}
	}()

	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.once.Do(func() { close(w.stop) })
	w.wg.Wait()
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) cancelTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Watcher) reload() {
	slog.Info("config file change detected, reloading", "path", w.path)
	cfg, err := Load(w.path)
	if err != nil {
		observability.ConfigReloadsTotal.WithLabelValues("error").Inc()
		slog.Warn("failed to reload configuration", "path", w.path, "error", err)
	} else {
		observability.ConfigReloadsTotal.WithLabelValues("ok").Inc()
	}

	if w.callback != nil {
		w.callback(cfg, err)
	}
}
