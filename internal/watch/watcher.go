// Package watch re-runs the pipeline when the repository changes.
//
// A Watcher combines fsnotify events, debounced so that an editor save or a
// branch checkout produces one run, with an optional fixed interval. Runs
// never overlap: events that arrive while a run is in progress are collected
// and trigger the next one.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/errors"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/event"
	"github.com/Ayushpate2003/Ai-doc-generater/internal/logging"
)

// Trigger reasons.
const (
	ReasonStartup  = "startup"
	ReasonChange   = "change"
	ReasonInterval = "interval"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// DefaultIgnoreDirs are directory names never watched.
var DefaultIgnoreDirs = []string{".git", ".ai", "node_modules", "vendor", ".idea", ".vscode"}

// RunFunc performs one pipeline pass. changed is empty for startup and
// interval triggers.
type RunFunc func(ctx context.Context, reason string, changed []string) error

// Observer receives watch events.
type Observer interface {
	Publish(e event.Event)
}

// Options configures a Watcher.
type Options struct {
	Root string
	// Interval triggers a run periodically. 0 disables periodic runs.
	Interval time.Duration
	Debounce time.Duration
	// IgnoreDirs are directory base names skipped anywhere in the tree.
	// Nil selects DefaultIgnoreDirs.
	IgnoreDirs []string
	// IgnorePaths are slash-separated paths relative to Root, typically the
	// documents the pipeline itself writes. A path also ignores everything
	// below it.
	IgnorePaths []string
	// RunOnStart triggers a run before the first event.
	RunOnStart bool
	Observer   Observer
	Logger     *logging.Logger
}

// Watcher schedules runs for one repository.
type Watcher struct {
	opts    Options
	run     RunFunc
	watcher *fsnotify.Watcher
	ignore  map[string]bool
	logger  *logging.Logger

	// pending holds changed paths since the last run.
	pending map[string]struct{}
}

// New creates a Watcher and registers every directory below root that is
// not ignored.
func New(opts Options, run RunFunc) (*Watcher, error) {
	if opts.Root == "" {
		return nil, errors.NewValidationError("root", opts.Root, "is required")
	}
	if opts.Interval < 0 {
		return nil, errors.NewValidationError("watch.interval", opts.Interval, "must not be negative")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.IgnoreDirs == nil {
		opts.IgnoreDirs = DefaultIgnoreDirs
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	opts.Root = root

	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		opts:    opts,
		run:     run,
		watcher: fw,
		ignore:  make(map[string]bool, len(opts.IgnoreDirs)),
		logger:  logger.WithPhase("watch"),
		pending: make(map[string]struct{}),
	}
	for _, d := range opts.IgnoreDirs {
		w.ignore[d] = true
	}

	if err := w.addRecursive(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Watched returns the directories currently registered with fsnotify.
func (w *Watcher) Watched() []string {
	list := w.watcher.WatchList()
	slices.Sort(list)
	return list
}

// Run blocks until ctx is done. Errors from individual runs are logged and
// do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	debounce := time.NewTimer(w.opts.Debounce)
	debounce.Stop()
	defer debounce.Stop()

	var tick <-chan time.Time
	if w.opts.Interval > 0 {
		ticker := time.NewTicker(w.opts.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	w.logger.Info("watching repository",
		"root", w.opts.Root,
		"directories", len(w.watcher.WatchList()),
		"interval", w.opts.Interval.String(),
		"debounce", w.opts.Debounce.String())

	if w.opts.RunOnStart {
		w.trigger(ctx, ReasonStartup, nil)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if rel, ok := w.handle(ev); ok {
				w.pending[rel] = struct{}{}
				debounce.Reset(w.opts.Debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-debounce.C:
			changed := make([]string, 0, len(w.pending))
			for p := range w.pending {
				changed = append(changed, p)
			}
			clear(w.pending)
			slices.Sort(changed)
			w.trigger(ctx, ReasonChange, changed)

		case <-tick:
			w.trigger(ctx, ReasonInterval, nil)
		}
	}
}

func (w *Watcher) trigger(ctx context.Context, reason string, changed []string) {
	if ctx.Err() != nil {
		return
	}
	w.logger.Info("run triggered", "reason", reason, "changed", len(changed))
	if w.opts.Observer != nil {
		w.opts.Observer.Publish(event.NewWatchTriggeredEvent(w.opts.Root, reason, changed))
	}
	if err := w.run(ctx, reason, changed); err != nil {
		w.logger.Warn("triggered run failed", "reason", reason, "error", err)
	}
}

// handle reacts to one fsnotify event and returns the changed path when it
// should count toward the next run.
func (w *Watcher) handle(ev fsnotify.Event) (string, bool) {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return "", false
	}
	rel, err := filepath.Rel(w.opts.Root, ev.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if w.Ignored(rel) {
		return "", false
	}

	// New directories are not covered by their parent's watch.
	if ev.Has(fsnotify.Create) {
		if err := w.addRecursive(ev.Name); err != nil {
			w.logger.Debug("failed to watch new path", "path", rel, "error", err)
		}
	}
	return rel, true
}

// Ignored reports whether the slash-separated path rel, relative to the
// root, is excluded from watching.
func (w *Watcher) Ignored(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if w.ignore[part] {
			return true
		}
	}
	for _, p := range w.opts.IgnorePaths {
		p = strings.Trim(filepath.ToSlash(p), "/")
		if p != "" && (rel == p || strings.HasPrefix(rel, p+"/")) {
			return true
		}
	}
	return false
}

// addRecursive registers path and every directory below it. A path that is
// not a directory is left alone.
func (w *Watcher) addRecursive(path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == path {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.opts.Root {
			rel, _ := filepath.Rel(w.opts.Root, p)
			if w.Ignored(filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
		}
		return w.watcher.Add(p)
	})
}
