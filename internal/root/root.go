// SPDX-License-Identifier: MPL-2.0

package root

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
)

type (
	// RecrawlInfo is a snapshot of a root's recrawl record.
	RecrawlInfo struct {
		// Warning is the most recent problem reported for part of the tree.
		// Last write wins.
		Warning string
		// Count is the number of recrawls scheduled since the root was created.
		Count int
		// ShouldRecrawl is set when a full recrawl is pending.
		ShouldRecrawl bool
	}

	// Root is one watched directory tree. Path is immutable; the failure
	// reason, recrawl record and cancellation state are safe for concurrent
	// use.
	Root struct {
		path string
		dir  *Dir

		// failureReason holds the first non-empty reason ever set.
		failureReason atomic.Pointer[string]

		recrawlMu sync.RWMutex
		recrawl   RecrawlInfo

		ctx        context.Context
		cancelFunc context.CancelFunc
		cancelOnce sync.Once
		cancelled  atomic.Bool
	}
)

// New creates a Root for path. The path is made absolute and cleaned; it
// is not required to exist. The root's context derives from parent.
func New(parent context.Context, path string) (*Root, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("root: resolve %q: %w", path, err)
	}
	ctx, cancel := context.WithCancel(parent)
	r := &Root{
		path:       abs,
		ctx:        ctx,
		cancelFunc: cancel,
	}
	r.dir = &Dir{name: abs}
	return r, nil
}

// Path returns the canonical root path.
func (r *Root) Path() string {
	return r.path
}

// Dir returns the tree node for the root directory itself.
func (r *Root) Dir() *Dir {
	return r.dir
}

// FailureReason returns the reason recorded for the watch failing, if any.
func (r *Root) FailureReason() (string, bool) {
	p := r.failureReason.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}

// SetFailureReason records reason unless one is already set. The check and
// the write are a single compare-and-swap, so with concurrent callers the
// first writer wins. Empty reasons are ignored. It reports whether reason
// was stored.
func (r *Root) SetFailureReason(reason string) bool {
	if reason == "" {
		return false
	}
	return r.failureReason.CompareAndSwap(nil, &reason)
}

// SetRecrawlWarning replaces the standing recrawl warning.
func (r *Root) SetRecrawlWarning(warning string) {
	r.recrawlMu.Lock()
	r.recrawl.Warning = warning
	r.recrawlMu.Unlock()
}

// ScheduleRecrawl flags the root for a full recrawl and records why.
func (r *Root) ScheduleRecrawl(reason string) {
	r.recrawlMu.Lock()
	defer r.recrawlMu.Unlock()
	r.recrawl.ShouldRecrawl = true
	r.recrawl.Count++
	r.recrawl.Warning = reason
}

// TakeRecrawl clears the pending recrawl flag and reports whether it was set.
func (r *Root) TakeRecrawl() bool {
	r.recrawlMu.Lock()
	defer r.recrawlMu.Unlock()
	pending := r.recrawl.ShouldRecrawl
	r.recrawl.ShouldRecrawl = false
	return pending
}

// RecrawlInfo returns a copy of the recrawl record.
func (r *Root) RecrawlInfo() RecrawlInfo {
	r.recrawlMu.RLock()
	defer r.recrawlMu.RUnlock()
	return r.recrawl
}

// Cancel stops the watch. It is safe to call any number of times from any
// goroutine.
func (r *Root) Cancel() {
	r.cancelOnce.Do(func() {
		r.cancelled.Store(true)
		r.cancelFunc()
	})
}

// Cancelled reports whether Cancel has been called.
func (r *Root) Cancelled() bool {
	return r.cancelled.Load()
}

// Done is closed once the root is cancelled or its parent context ends.
func (r *Root) Done() <-chan struct{} {
	return r.ctx.Done()
}

// Context returns the root's context.
func (r *Root) Context() context.Context {
	return r.ctx
}
