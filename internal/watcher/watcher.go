// Package watcher provides file system watching utilities for detecting
// changes to the prompt dataset and its overlay packs.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce coalesces editor save bursts into one callback.
const DefaultDebounce = 100 * time.Millisecond

const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// Watcher monitors the dataset file and the pack directory and calls onChange after
// a debounce window. Parent directories are watched since fsnotify cannot watch
// non-existent files, and editors often replace files instead of writing them.
type Watcher struct {
	libraryPath string // dataset file, empty when the dataset is remote
	packDir     string // directory of *.yml overlays, may not exist yet
	onChange    func(path string)
	watcher     *fsnotify.Watcher
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.Mutex
	running     bool
	debounce    time.Duration
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a Watcher. Either path may be empty to skip it.
// onChange receives the path of the last event in the debounce window.
func New(libraryPath, packDir string, onChange func(path string), opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &Watcher{
		onChange: onChange,
		watcher:  fsw,
		ctx:      ctx,
		cancel:   cancel,
		debounce: DefaultDebounce,
	}
	if libraryPath != "" {
		w.libraryPath = filepath.Clean(libraryPath)
	}
	if packDir != "" {
		w.packDir = filepath.Clean(packDir)
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. Missing directories are logged and skipped.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, dir := range w.watchDirs() {
		if err := w.addWatch(dir); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to add initial watch")
		}
	}

	go w.watchLoop()
	return nil
}

// Stop stops the watcher. A pending callback is dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	w.cancel()
	return w.watcher.Close()
}

func (w *Watcher) watchDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if dir != "" && !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	if w.libraryPath != "" {
		add(filepath.Dir(w.libraryPath))
	}
	if w.packDir != "" {
		add(filepath.Dir(w.packDir))
		add(w.packDir)
	}
	return dirs
}

func (w *Watcher) addWatch(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return err
	}
	return w.watcher.Add(dir)
}

// relevant reports whether an event path touches the dataset or a pack file.
func (w *Watcher) relevant(path string) bool {
	if w.libraryPath != "" && path == w.libraryPath {
		return true
	}
	if w.packDir == "" {
		return false
	}
	if path == w.packDir {
		return true
	}
	if filepath.Dir(path) != w.packDir {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yml" || ext == ".yaml"
}

func (w *Watcher) watchLoop() {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			eventPath := filepath.Clean(event.Name)
			if event.Op&relevantOps == 0 || !w.relevant(eventPath) {
				continue
			}

			// pack directory created after start
			if eventPath == w.packDir && event.Op&fsnotify.Create != 0 {
				log.Info().Str("path", w.packDir).Msg("Pack directory created, adding watch")
				if err := w.addWatch(w.packDir); err != nil {
					log.Warn().Err(err).Str("path", w.packDir).Msg("Failed to watch pack directory")
				}
			}

			log.Debug().Str("path", eventPath).Str("op", event.Op.String()).Msg("Library change detected")
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				w.fire(eventPath)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (w *Watcher) fire(path string) {
	if w.ctx.Err() != nil {
		return
	}
	log.Info().Str("path", path).Msg("Triggering library reload")
	if w.onChange != nil {
		w.onChange(path)
	}
}
