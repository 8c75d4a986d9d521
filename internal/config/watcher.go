package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 150 * time.Millisecond

// Reload is the result of re-reading a watched config file.
type Reload struct {
	Config *Config
	Err    error
}

// LoadFunc produces a fresh configuration.
type LoadFunc func() (*Config, error)

// Watcher reloads the configuration whenever the watched file changes. The
// parent directory is watched so that atomic rename-on-save is seen.
type Watcher struct {
	path     string
	load     LoadFunc
	debounce time.Duration
	fw       *fsnotify.Watcher
	reloads  chan Reload
}

// NewWatcher starts watching path. Call Run to process events and Close to
// release the underlying watcher.
func NewWatcher(path string, load LoadFunc) (*Watcher, error) {
	abs, err := filepath.Abs(expandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		load:     load,
		debounce: DefaultDebounce,
		fw:       fw,
		reloads:  make(chan Reload, 1),
	}, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Reloads delivers one value per settled change. It is closed when Run
// returns.
func (w *Watcher) Reloads() <-chan Reload { return w.reloads }

// Run blocks until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.reloads)

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			cfg, err := w.load()
			select {
			case w.reloads <- Reload{Config: cfg, Err: err}:
			case <-ctx.Done():
				return nil
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			select {
			case w.reloads <- Reload{Err: fmt.Errorf("watcher error: %w", err)}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// Close stops the underlying watcher; Run returns afterwards.
func (w *Watcher) Close() error {
	return w.fw.Close()
}
