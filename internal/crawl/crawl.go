// SPDX-License-Identifier: MPL-2.0

// Package crawl walks a watch root breadth-first, opening every directory
// and routing open failures through the warnerr policy.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dirwatch/dirwatch/internal/oserr"
	"github.com/dirwatch/dirwatch/internal/poison"
	"github.com/dirwatch/dirwatch/internal/root"
	"github.com/dirwatch/dirwatch/internal/warnerr"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// SyscallOpenDir names the directory open in diagnostics.
	SyscallOpenDir = "opendir"
	// SyscallReadDir names the directory listing in diagnostics.
	SyscallReadDir = "readdir"
)

// ErrRootCancelled is returned when the walk stops because the root was
// cancelled.
var ErrRootCancelled = errors.New("watch root cancelled")

// defaultIgnores lists directories that are never descended into. They
// cover VCS metadata and dependency caches that generate high-frequency
// noise.
var defaultIgnores = []string{
	"**/.git",
	"**/.hg",
	"**/.svn",
	"**/node_modules",
	"**/__pycache__",
}

type (
	// Options configures a Crawler.
	Options struct {
		// Handler receives every directory open failure. Required.
		Handler *warnerr.Handler
		// Poison stops the walk once the host is poisoned. Required.
		Poison *poison.State
		// Ignore are additional doublestar patterns, matched against the
		// slash-separated path relative to the root.
		Ignore []string
		// Now supplies failure timestamps. nil means time.Now.
		Now func() time.Time
	}

	// Stats summarises one walk.
	Stats struct {
		Dirs   int
		Files  int
		Errors int
	}

	// RootCancelledError reports that a walk stopped because its root was
	// cancelled, carrying the root's failure reason.
	RootCancelledError struct {
		Path   string
		Reason string
	}

	// Crawler walks watch roots. It is safe for concurrent use.
	Crawler struct {
		handler *warnerr.Handler
		poison  *poison.State
		ignores []string
		now     func() time.Time
		readDir func(path string) ([]os.DirEntry, string, error)
	}
)

// New validates the ignore patterns and returns a Crawler.
func New(opts Options) (*Crawler, error) {
	if opts.Handler == nil {
		return nil, errors.New("crawl: handler is required")
	}
	if opts.Poison == nil {
		return nil, errors.New("crawl: poison state is required")
	}
	for _, pat := range opts.Ignore {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("crawl: invalid ignore pattern %q: %w", pat, doublestar.ErrBadPattern)
		}
	}

	ignores := make([]string, 0, len(defaultIgnores)+len(opts.Ignore))
	ignores = append(ignores, defaultIgnores...)
	ignores = append(ignores, opts.Ignore...)

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Crawler{
		handler: opts.Handler,
		poison:  opts.Poison,
		ignores: ignores,
		now:     now,
		readDir: readDir,
	}, nil
}

// Crawl walks the tree below start (inclusive). visit is called for every
// directory that was opened and listed successfully; a non-nil error from
// visit aborts the walk. Directories that cannot be opened are handed to
// the warnerr policy and skipped.
func (c *Crawler) Crawl(ctx context.Context, r *root.Root, start *root.Dir, visit func(dir *root.Dir) error) (Stats, error) {
	var stats Stats
	queue := []*root.Dir{start}

	for len(queue) > 0 {
		if err := c.stopErr(ctx, r); err != nil {
			return stats, err
		}

		dir := queue[0]
		queue = queue[1:]

		entries, syscall, err := c.readDir(dir.FullPath())
		if err != nil {
			stats.Errors++
			c.handler.HandleOpenError(r, dir, c.now(), syscall, oserr.From(err))
			continue
		}
		stats.Dirs++

		if visit != nil {
			if err := visit(dir); err != nil {
				return stats, err
			}
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				stats.Files++
				continue
			}
			child := dir.Child(entry.Name())
			if c.Ignored(r, child.FullPath()) {
				continue
			}
			queue = append(queue, child)
		}
	}

	return stats, c.stopErr(ctx, r)
}

// Ignored reports whether path lies under an ignored directory of r.
func (c *Crawler) Ignored(r *root.Root, path string) bool {
	rel, err := filepath.Rel(r.Path(), path)
	if err != nil || rel == "." {
		return false
	}
	normalized := filepath.ToSlash(rel)
	for _, pat := range c.ignores {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
		if matched, matchErr := doublestar.Match(pat+"/**", normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

func (c *Crawler) stopErr(ctx context.Context, r *root.Root) error {
	if err := c.poison.Err(); err != nil {
		return err
	}
	if r.Cancelled() {
		reason, _ := r.FailureReason()
		return &RootCancelledError{Path: r.Path(), Reason: reason}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("crawl %s: %w", r.Path(), err)
	}
	return nil
}

// readDir opens and lists path, reporting which step failed.
func readDir(path string) ([]os.DirEntry, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, SyscallOpenDir, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, SyscallOpenDir, err
	}
	if !info.IsDir() {
		return nil, SyscallOpenDir, &os.PathError{Op: "open", Path: path, Err: oserr.ErrNotDir}
	}

	entries, err := f.ReadDir(-1)
	if err != nil {
		return nil, SyscallReadDir, err
	}
	return entries, "", nil
}

// Error implements error.
func (e *RootCancelledError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s", ErrRootCancelled, e.Path)
	}
	return fmt.Sprintf("%s: %s: %s", ErrRootCancelled, e.Path, e.Reason)
}

// Unwrap returns ErrRootCancelled for errors.Is compatibility.
func (e *RootCancelledError) Unwrap() error {
	return ErrRootCancelled
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	out := make([]string, len(defaultIgnores))
	copy(out, defaultIgnores)
	return out
}
