// Package watch re-runs provisioning when the template or manifest
// changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce coalesces editor write bursts into one trigger.
const defaultDebounce = 500 * time.Millisecond

// Watcher triggers a callback when any of a set of files changes.
type Watcher struct {
	paths    map[string]bool
	debounce time.Duration
	onChange func(ctx context.Context)
}

// New creates a watcher over the given files. Empty paths are skipped.
// onChange runs on the watcher's goroutine after each debounced change.
func New(onChange func(ctx context.Context), paths ...string) (*Watcher, error) {
	targets := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve watch path %s: %w", p, err)
		}
		targets[abs] = true
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("nothing to watch")
	}

	return &Watcher{
		paths:    targets,
		debounce: defaultDebounce,
		onChange: onChange,
	}, nil
}

// Run watches until ctx is canceled. Directories containing the target
// files are watched rather than the files themselves, so editors that
// replace files on save (rename + create) are still observed.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	dirs := make(map[string]bool)
	for p := range w.paths {
		dirs[filepath.Dir(p)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.paths[abs] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			w.onChange(ctx)
		case <-fsw.Errors:
			// Ignore errors, keep watching
		}
	}
}
