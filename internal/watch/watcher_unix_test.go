// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/dirwatch/dirwatch/internal/poison"

	"github.com/fsnotify/fsnotify"
)

// TestWatcherEventStreamExhaustion verifies that descriptor exhaustion on
// the event stream poisons the host without cancelling the root.
func TestWatcherEventStreamExhaustion(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	w, err := New(context.Background(), h.config(Config{}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	_, errCh := startRun(t, w)

	w.fsw.Errors <- fmt.Errorf("fsnotify: %w", syscall.EMFILE)

	err = waitErr(t, errCh)
	if !errors.Is(err, poison.ErrPoisoned) {
		t.Fatalf("Run() error = %v, want ErrPoisoned", err)
	}
	rec, ok := h.poison.Record()
	if !ok || rec.Path != h.dir || rec.Syscall != syscallRead {
		t.Errorf("poison record = %+v, %v", rec, ok)
	}
	if h.root.Cancelled() {
		t.Error("host poisoning cancelled the root")
	}
	if reason, _ := h.root.FailureReason(); reason != h.poison.Reason() {
		t.Errorf("failure reason = %q, want poison reason", reason)
	}
}

// TestWatcherOverflowSchedulesRecrawl verifies that a kernel queue overflow
// is recorded and triggers a recrawl instead of ending the watch.
func TestWatcherOverflowSchedulesRecrawl(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	w, err := New(context.Background(), h.config(Config{}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	cancel, errCh := startRun(t, w)

	w.fsw.Errors <- fsnotify.ErrEventOverflow

	deadline := time.Now().Add(5 * time.Second)
	for {
		info := h.root.RecrawlInfo()
		if info.Count == 1 && !info.ShouldRecrawl {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("recrawl not performed; info = %+v", info)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := waitErr(t, errCh); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

// TestWatcherTransientStreamError verifies that unclassified errors on the
// event stream are logged and the watch continues.
func TestWatcherTransientStreamError(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	w, err := New(context.Background(), h.config(Config{}))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	cancel, errCh := startRun(t, w)

	w.fsw.Errors <- syscall.EIO
	time.Sleep(50 * time.Millisecond)

	select {
	case err := <-errCh:
		t.Fatalf("Run() returned early: %v", err)
	default:
	}
	if h.poison.Poisoned() {
		t.Error("EIO poisoned the host")
	}

	cancel()
	if err := waitErr(t, errCh); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}
