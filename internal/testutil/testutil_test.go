// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFakeClock_Now_DefaultTime(t *testing.T) {
	t.Parallel()

	clock := NewFakeClock(time.Time{})
	if got := clock.Now(); !got.Equal(ReferenceTime) {
		t.Errorf("FakeClock.Now() with zero time = %v, want %v", got, ReferenceTime)
	}
}

func TestFakeClock_AdvanceAndSet(t *testing.T) {
	t.Parallel()

	initial := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := NewFakeClock(initial)

	clock.Advance(time.Hour)
	if got := clock.Now(); !got.Equal(initial.Add(time.Hour)) {
		t.Errorf("after Advance, Now() = %v, want %v", got, initial.Add(time.Hour))
	}

	target := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	clock.Set(target)
	if got := clock.Now(); !got.Equal(target) {
		t.Errorf("after Set, Now() = %v, want %v", got, target)
	}
}

func TestSteppingClock(t *testing.T) {
	t.Parallel()

	clock := NewSteppingClock(time.Second)
	first := clock.Now()
	second := clock.Now()

	if got := second.Sub(first); got != time.Second {
		t.Errorf("step between Now() calls = %v, want 1s", got)
	}
}

func TestFakeClock_Concurrent(t *testing.T) {
	t.Parallel()

	clock := NewSteppingClock(time.Millisecond)
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Now()
		}()
	}
	wg.Wait()

	if got := clock.Now(); !got.Equal(ReferenceTime.Add(50 * time.Millisecond)) {
		t.Errorf("Now() after 50 concurrent reads = %v, want %v", got, ReferenceTime.Add(50*time.Millisecond))
	}
}

func TestMustTree(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	MustTree(t, base, "a/", "a/b/", "a/file.txt", "c/d.txt")

	for _, dir := range []string{"a", "a/b", "c"} {
		info, err := os.Stat(filepath.Join(base, filepath.FromSlash(dir)))
		if err != nil || !info.IsDir() {
			t.Errorf("%s: want directory, got info=%v err=%v", dir, info, err)
		}
	}
	for _, file := range []string{"a/file.txt", "c/d.txt"} {
		info, err := os.Stat(filepath.Join(base, filepath.FromSlash(file)))
		if err != nil || info.IsDir() {
			t.Errorf("%s: want file, got info=%v err=%v", file, info, err)
		}
	}
}
