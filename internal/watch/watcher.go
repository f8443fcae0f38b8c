// SPDX-License-Identifier: MPL-2.0

// Package watch keeps a live fsnotify watch on one watch root and delivers
// debounced change notifications.
//
// Directories are registered through a crawl of the root. Every failure to
// open or register a directory goes through the warnerr policy, so a
// vanished subtree is logged and skipped, an inaccessible root cancels the
// watch, and descriptor or watch exhaustion poisons the host.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dirwatch/dirwatch/internal/crawl"
	"github.com/dirwatch/dirwatch/internal/oserr"
	"github.com/dirwatch/dirwatch/internal/poison"
	"github.com/dirwatch/dirwatch/internal/root"
	"github.com/dirwatch/dirwatch/internal/warnerr"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const (
	// defaultDebounce is the delay before firing the OnChange callback after
	// the last filesystem event. This allows rapid successive events (e.g.,
	// an editor writing then renaming a temp file) to coalesce.
	defaultDebounce = 500 * time.Millisecond

	// syscallAddWatch names watch registration in diagnostics.
	syscallAddWatch = "inotify_add_watch"
	// syscallInit names watcher creation in diagnostics.
	syscallInit = "inotify_init"
	// syscallRead names the event stream in diagnostics.
	syscallRead = "inotify_read"
	// syscallStat names the root re-check after a removal event.
	syscallStat = "lstat"
)

// defaultIgnores lists file patterns that never produce change
// notifications: editor swap files and OS metadata.
var defaultIgnores = []string{
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Root is the tree to watch. Required.
		Root *root.Root

		// Crawler registers directories. Required.
		Crawler *crawl.Crawler

		// Handler applies the open-failure policy to registration errors.
		// Required.
		Handler *warnerr.Handler

		// Poison is the host-wide poison state. Required.
		Poison *poison.State

		// Patterns are doublestar globs (e.g., "**/*.go") selecting which
		// files trigger callbacks. An empty slice selects every file.
		Patterns []string

		// Ignore are additional doublestar globs for files that never
		// trigger callbacks, merged with the built-in defaults.
		Ignore []string

		// Debounce is the quiet period after the last event before the
		// callback fires. Zero or negative values fall back to
		// defaultDebounce.
		Debounce time.Duration

		// OnChange is called after the debounce window closes with the
		// sorted, deduplicated list of changed paths relative to the root.
		// A nil callback is a no-op.
		OnChange func(ctx context.Context, changed []string) error

		// Logger receives watcher diagnostics. nil discards them.
		Logger *log.Logger

		// Now supplies failure timestamps. nil means time.Now.
		Now func() time.Time
	}

	// Watcher monitors one watch root. Run must be called exactly once;
	// calling it a second time returns an error.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		root     *root.Root
		ignores  []string
		logger   *log.Logger
		debounce time.Duration
		now      func() time.Time
		started  atomic.Bool

		mu      sync.Mutex
		watched map[string]struct{}

		// fatal carries errors from crawls started off the event loop.
		fatal chan error
	}
)

// Validate checks the required fields and glob patterns.
func (c Config) Validate() error {
	var errs []error
	if c.Root == nil {
		errs = append(errs, errors.New("root is required"))
	}
	if c.Crawler == nil {
		errs = append(errs, errors.New("crawler is required"))
	}
	if c.Handler == nil {
		errs = append(errs, errors.New("handler is required"))
	}
	if c.Poison == nil {
		errs = append(errs, errors.New("poison state is required"))
	}
	if err := validatePatterns(c.Patterns, "watch"); err != nil {
		errs = append(errs, err)
	}
	if err := validatePatterns(c.Ignore, "ignore"); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("watch: invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// New creates a Watcher and registers every reachable directory below the
// root. It fails if the root is cancelled or the host poisoned during the
// initial crawl.
func New(ctx context.Context, cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Poison.Err(); err != nil {
		return nil, fmt.Errorf("watch %s: %w", cfg.Root.Path(), err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	ignores := make([]string, 0, len(defaultIgnores)+len(cfg.Ignore))
	ignores = append(ignores, defaultIgnores...)
	ignores = append(ignores, cfg.Ignore...)

	w := &Watcher{
		cfg:      cfg,
		root:     cfg.Root,
		ignores:  ignores,
		logger:   logger,
		debounce: debounce,
		now:      now,
		watched:  make(map[string]struct{}),
		fatal:    make(chan error, 1),
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		// Watcher creation fails on descriptor or instance exhaustion;
		// treat it like the root failing to open.
		cfg.Handler.HandleOpenError(w.root, w.root.Dir(), now(), syscallInit, oserr.From(err))
		if poisonErr := cfg.Poison.Err(); poisonErr != nil {
			return nil, fmt.Errorf("watch %s: %w", w.root.Path(), poisonErr)
		}
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	w.fsw = fsw

	stats, err := cfg.Crawler.Crawl(ctx, w.root, w.root.Dir(), w.addWatch)
	if err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("close after init failure", "err", closeErr)
		}
		return nil, fmt.Errorf("watch %s: initial crawl: %w", w.root.Path(), err)
	}
	logger.Debug("initial crawl complete", "root", w.root.Path(), "dirs", stats.Dirs, "files", stats.Files, "errors", stats.Errors)

	return w, nil
}

// Run blocks until ctx is cancelled, the root is cancelled, or the host is
// poisoned, processing filesystem events and dispatching debounced
// callbacks. It returns nil on context cancellation, a
// *crawl.RootCancelledError when the root is cancelled, and an error
// wrapping poison.ErrPoisoned when the host is poisoned. Run must be called
// exactly once; a second call returns an error immediately.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	schedule := func(fire func()) {
		mu.Lock()
		if timer == nil {
			timer = time.AfterFunc(w.debounce, fire)
		} else {
			timer.Reset(w.debounce)
		}
		mu.Unlock()
	}

	// fire performs any pending recrawl, then drains the pending set and
	// invokes OnChange. An atomic skip-if-busy guard prevents concurrent
	// callbacks when the callback outlasts the debounce period.
	fire := func() {
		if ctx.Err() != nil || w.root.Cancelled() {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Warn("skipping change delivery (previous callback still in progress)")
			// Reschedule so pending events are not lost when no further
			// filesystem events arrive.
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		if w.root.TakeRecrawl() {
			w.recrawl(ctx)
		}

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("callback failed", "err", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		localTimer := timer
		mu.Unlock()
		if localTimer != nil {
			localTimer.Stop()
		}
		if closeErr := w.fsw.Close(); closeErr != nil {
			w.logger.Warn("close fsnotify", "err", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-w.root.Done():
			if !w.root.Cancelled() && w.cfg.Poison.Err() == nil {
				// The root's parent context ended; that is a shutdown, not a
				// watch failure.
				return nil
			}
			return w.stopErr()

		case err := <-w.fatal:
			return err

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: fsnotify event channel closed unexpectedly")
			}

			if evt.Name == w.root.Path() {
				if evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename) {
					w.checkRoot()
				}
				continue
			}

			if evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename) {
				w.forget(evt.Name)
			}

			// Auto-add newly created directories so the watch extends to
			// subtrees created after startup.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(ctx, evt.Name)
			}

			rel, err := filepath.Rel(w.root.Path(), evt.Name)
			if err != nil {
				rel = evt.Name
			}
			if w.isIgnored(evt.Name, rel) || !w.matchesPatterns(rel) {
				continue
			}

			mu.Lock()
			pending[filepath.ToSlash(rel)] = struct{}{}
			mu.Unlock()
			schedule(fire)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: fsnotify error channel closed unexpectedly")
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("event queue overflowed; scheduling recrawl", "root", w.root.Path())
				w.root.ScheduleRecrawl(fmt.Sprintf("%s: %v; recrawling", w.root.Path(), err))
				schedule(fire)
				continue
			}
			// Resource exhaustion on the event stream means no watch on
			// this host can be trusted; everything else is logged.
			e := oserr.From(err)
			if warnerr.Classify(e.Code) == warnerr.HostFatal {
				w.cfg.Handler.HandleOpenError(w.root, w.root.Dir(), w.now(), syscallRead, e)
				return w.stopErr()
			}
			w.logger.Error("fsnotify error", "root", w.root.Path(), "err", err)
		}
	}
}

// Watched returns the registered directories, sorted.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Sorted(maps.Keys(w.watched))
}

// addWatch registers dir with fsnotify. Registration failures are handed
// to the warnerr policy and do not abort the crawl; the crawl itself stops
// once the policy cancels the root or poisons the host.
func (w *Watcher) addWatch(dir *root.Dir) error {
	path := dir.FullPath()
	if err := w.fsw.Add(path); err != nil {
		if errors.Is(err, fsnotify.ErrClosed) {
			// Run is shutting down; the directory itself is fine.
			return nil
		}
		w.cfg.Handler.HandleOpenError(w.root, dir, w.now(), syscallAddWatch, oserr.From(err))
		return nil
	}
	w.mu.Lock()
	w.watched[path] = struct{}{}
	w.mu.Unlock()
	return nil
}

// forget drops path and everything below it from the registered set.
// fsnotify removes kernel watches for deleted directories itself.
func (w *Watcher) forget(path string) {
	prefix := path + string(filepath.Separator)
	w.mu.Lock()
	defer w.mu.Unlock()
	for p := range w.watched {
		if p == path || len(p) > len(prefix) && p[:len(prefix)] == prefix {
			delete(w.watched, p)
		}
	}
}

// maybeAddDir crawls path if it is a new, non-ignored directory.
func (w *Watcher) maybeAddDir(ctx context.Context, path string) {
	info, err := os.Lstat(path)
	if err != nil || !info.IsDir() || w.cfg.Crawler.Ignored(w.root, path) {
		return
	}

	dir := w.root.DirAt(path)
	if _, err := w.cfg.Crawler.Crawl(ctx, w.root, dir, w.addWatch); err != nil {
		w.report(err)
	}
}

// recrawl re-registers the whole tree after the kernel dropped events.
func (w *Watcher) recrawl(ctx context.Context) {
	w.logger.Info("recrawling", "root", w.root.Path(), "count", w.root.RecrawlInfo().Count)
	if _, err := w.cfg.Crawler.Crawl(ctx, w.root, w.root.Dir(), w.addWatch); err != nil {
		w.report(err)
	}
}

// checkRoot re-examines the root after a removal or rename event on it. A
// root that is gone or no longer a directory is handled as a failed open of
// the root, which cancels the watch.
func (w *Watcher) checkRoot() {
	info, err := os.Lstat(w.root.Path())
	if err == nil && !info.IsDir() {
		err = &os.PathError{Op: syscallStat, Path: w.root.Path(), Err: oserr.ErrNotDir}
	}
	if err != nil {
		w.cfg.Handler.HandleOpenError(w.root, w.root.Dir(), w.now(), syscallStat, oserr.From(err))
	}
}

// report forwards terminal crawl errors to Run. Context cancellation is not
// terminal here; Run observes it directly.
func (w *Watcher) report(err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	if !errors.Is(err, crawl.ErrRootCancelled) && !errors.Is(err, poison.ErrPoisoned) {
		w.logger.Error("crawl failed", "root", w.root.Path(), "err", err)
		return
	}
	select {
	case w.fatal <- err:
	default:
	}
}

// stopErr describes why the watch ended.
func (w *Watcher) stopErr() error {
	if err := w.cfg.Poison.Err(); err != nil {
		return fmt.Errorf("watch %s: %w", w.root.Path(), err)
	}
	reason, _ := w.root.FailureReason()
	return &crawl.RootCancelledError{Path: w.root.Path(), Reason: reason}
}

// isIgnored reports whether the event path is below an ignored directory or
// matches a file ignore pattern.
func (w *Watcher) isIgnored(path, rel string) bool {
	if w.cfg.Crawler.Ignored(w.root, path) {
		return true
	}
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.ignores {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// matchesPatterns returns true if rel matches at least one configured watch
// pattern. With no patterns configured, everything matches.
func (w *Watcher) matchesPatterns(rel string) bool {
	if len(w.cfg.Patterns) == 0 {
		return true
	}
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.cfg.Patterns {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in file ignore patterns.
func DefaultIgnores() []string {
	out := make([]string, len(defaultIgnores))
	copy(out, defaultIgnores)
	return out
}

// validatePatterns checks that every pattern is a valid doublestar glob.
// The label (e.g., "watch" or "ignore") is used in error messages.
func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if _, err := doublestar.Match(pat, ""); err != nil {
			return fmt.Errorf("invalid %s pattern %q: %w", label, pat, err)
		}
	}
	return nil
}
