// Package watch re-explores a project whenever its files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/scout/internal/debug"
	"github.com/standardbeagle/scout/internal/explorer"
	"github.com/standardbeagle/scout/internal/types"
	"github.com/standardbeagle/scout/pkg/pathutil"
)

// DefaultDebounce is the quiet period after the last event before a walk.
const DefaultDebounce = 300 * time.Millisecond

// ExploreFunc performs one fresh walk. Structures are never updated in
// place; every burst of changes produces a new one.
type ExploreFunc func(ctx context.Context) (*types.CodebaseStructure, error)

// Update is delivered after each debounced burst.
type Update struct {
	Structure *types.CodebaseStructure
	Events    int // distinct paths changed in the burst
	Err       error
	Duration  time.Duration
}

// Options configure a Watcher.
type Options struct {
	Debounce time.Duration
	Exclude  []string // doublestar globs for directories not to watch
	OnUpdate func(Update)
}

// Stats summarise a watcher's activity.
type Stats struct {
	EventsProcessed int64
	Walks           int64
	Errors          int64
	LastWalk        time.Time
	Watched         int
}

// Watcher watches every walkable directory below a root.
type Watcher struct {
	root    string
	explore ExploreFunc
	opts    Options
	logger  debug.Logger

	fsw    *fsnotify.Watcher
	cancel context.CancelFunc
	wg     sync.WaitGroup

	stopOnce sync.Once
	statsMu  sync.RWMutex
	stats    Stats
}

// New creates a watcher for root. Start begins watching.
func New(root string, explore ExploreFunc, opts Options, logger debug.Logger) (*Watcher, error) {
	if explore == nil {
		return nil, errors.New("watch: explore function is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		root:    root,
		explore: explore,
		opts:    opts,
		logger:  debug.OrNop(logger),
		fsw:     fsw,
	}, nil
}

// Start adds watches below the root and processes events until ctx ends or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatches(w.root); err != nil {
		return fmt.Errorf("failed to add watches starting from %s: %w", w.root, err)
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.processEvents(ctx)

	w.logger.Info(debug.ComponentWatch, "watching for changes", "root", w.root, "directories", w.watchedCount())
	return nil
}

// Stop ends event processing and waits for an in-flight walk to finish.
// Pending events are dropped. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
		}
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() Stats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	st := w.stats
	st.Watched = w.watchedCount()
	return st
}

func (w *Watcher) watchedCount() int {
	return len(w.fsw.WatchList())
}

// addWatches watches dir and every walkable directory below it.
func (w *Watcher) addWatches(dir string) error {
	visited := make(map[string]bool)
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.skipDir(path) {
			return filepath.SkipDir
		}
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil || visited[resolved] {
			return filepath.SkipDir
		}
		visited[resolved] = true

		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn(debug.ComponentWatch, "failed to add watch", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) skipDir(path string) bool {
	if explorer.IsIgnoredDir(filepath.Base(path)) {
		return true
	}
	rel := pathutil.ToSlashRelative(path, w.root)
	for _, pattern := range w.opts.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, rel+"/"); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	d := newDebouncer(w.opts.Debounce)
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event, d)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn(debug.ComponentWatch, "file watcher error", "error", err)

		case <-d.C():
			w.flush(ctx, d.take())
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, d *debouncer) {
	if event.Op == fsnotify.Chmod {
		return
	}
	debug.Log(debug.ComponentWatch, "event %v for %s\n", event.Op, event.Name)

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.skipDir(event.Name) {
				return
			}
			if err := w.addWatches(event.Name); err != nil {
				w.logger.Warn(debug.ComponentWatch, "failed to watch new directory", "path", event.Name, "error", err)
			}
		}
	}
	d.add(event.Name)
}

// flush runs one walk for a burst of changed paths.
func (w *Watcher) flush(ctx context.Context, paths int) {
	if paths == 0 {
		return
	}
	start := time.Now()
	cs, err := w.explore(ctx)
	u := Update{Structure: cs, Events: paths, Err: err, Duration: time.Since(start)}

	w.statsMu.Lock()
	w.stats.EventsProcessed += int64(paths)
	w.stats.Walks++
	w.stats.LastWalk = start
	if err != nil {
		w.stats.Errors++
	}
	w.statsMu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Warn(debug.ComponentWatch, "re-exploration failed", "error", err)
	} else {
		w.logger.Info(debug.ComponentWatch, "re-explored after changes",
			"events", paths, "files", cs.TotalFiles, "duration", u.Duration.Round(time.Millisecond))
	}
	if w.opts.OnUpdate != nil {
		w.opts.OnUpdate(u)
	}
}
