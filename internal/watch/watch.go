// Package watch turns raw fsnotify filesystem events into a deduplicated
// stream of "this HTML file changed" notifications, grounded on the
// fsnotify-driven cache invalidation loop used elsewhere in the pack
// (watch source files, react to writes) and adapted here to trigger a
// reparse/diff/push cycle instead of a cache eviction.
package watch

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a directory for writes to files matching glob and
// delivers debounced change notifications on Changes.
type Watcher struct {
	Changes chan string

	w        *fsnotify.Watcher
	dir      string
	glob     string
	debounce time.Duration
}

// New starts watching dir for writes to files matching glob (a
// filepath.Match pattern applied to the base name).
func New(dir, glob string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{
		Changes:  make(chan string, 16),
		w:        fw,
		dir:      dir,
		glob:     glob,
		debounce: 100 * time.Millisecond,
	}, nil
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.w.Close()
}

// Run drives the watch loop until ctx is canceled, coalescing bursts of
// events for the same file (editors routinely emit write+chmod+write for
// one save) into a single notification per debounce window.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.Changes)

	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	fire := make(chan string, 16)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			ok, err := filepath.Match(w.glob, filepath.Base(ev.Name))
			if err != nil {
				log.Printf("hotmeal: watch: bad glob %q: %v", w.glob, err)
				continue
			}
			if !ok {
				continue
			}
			path := ev.Name
			if t, exists := pending[path]; exists {
				t.Stop()
			}
			pending[path] = time.AfterFunc(w.debounce, func() { fire <- path })

		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			log.Printf("hotmeal: watch: %v", err)

		case path := <-fire:
			delete(pending, path)
			select {
			case w.Changes <- path:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
