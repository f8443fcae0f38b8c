// SPDX-License-Identifier: MPL-2.0

package crawl

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/dirwatch/dirwatch/internal/oserr"
	"github.com/dirwatch/dirwatch/internal/poison"
	"github.com/dirwatch/dirwatch/internal/root"
	"github.com/dirwatch/dirwatch/internal/testutil"
	"github.com/dirwatch/dirwatch/internal/warnerr"

	"github.com/charmbracelet/log"
)

type fixture struct {
	root    *root.Root
	crawler *Crawler
	sink    *warnerr.RecorderSink
	poison  *poison.State
	clock   *testutil.FakeClock
}

func newFixture(t *testing.T, ignore ...string) *fixture {
	t.Helper()

	base := t.TempDir()
	testutil.MustTree(t, base,
		"src/",
		"src/main.go",
		"src/pkg/",
		"src/pkg/lib.go",
		"docs/",
		"docs/readme.md",
		".git/objects/",
		"node_modules/dep/",
		"top.txt",
	)

	r, err := root.New(context.Background(), base)
	if err != nil {
		t.Fatalf("root.New() error = %v", err)
	}
	t.Cleanup(r.Cancel)

	sink := &warnerr.RecorderSink{}
	ps := poison.New(poison.Options{})
	clock := testutil.NewSteppingClock(time.Second)
	c, err := New(Options{
		Handler: warnerr.NewHandler(ps, sink),
		Poison:  ps,
		Ignore:  ignore,
		Now:     clock.Now,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &fixture{root: r, crawler: c, sink: sink, poison: ps, clock: clock}
}

// failOn makes opening path fail with err at the given step.
func (f *fixture) failOn(path, syscall string, err error) {
	next := f.crawler.readDir
	f.crawler.readDir = func(p string) ([]os.DirEntry, string, error) {
		if p == path {
			return nil, syscall, err
		}
		return next(p)
	}
}

func (f *fixture) rel(t *testing.T, dirs []*root.Dir) []string {
	t.Helper()
	var out []string
	for _, d := range dirs {
		rel, err := filepath.Rel(f.root.Path(), d.FullPath())
		if err != nil {
			t.Fatalf("filepath.Rel() error = %v", err)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	slices.Sort(out)
	return out
}

func TestCrawl_VisitsNonIgnoredDirectories(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	var visited []*root.Dir
	stats, err := f.crawler.Crawl(context.Background(), f.root, f.root.Dir(), func(d *root.Dir) error {
		visited = append(visited, d)
		return nil
	})
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}

	want := []string{".", "docs", "src", "src/pkg"}
	if got := f.rel(t, visited); !slices.Equal(got, want) {
		t.Errorf("visited = %v, want %v", got, want)
	}
	if stats.Dirs != 4 || stats.Files != 4 || stats.Errors != 0 {
		t.Errorf("stats = %+v, want 4 dirs, 4 files, 0 errors", stats)
	}
}

func TestCrawl_UserIgnores(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "docs")

	var visited []*root.Dir
	if _, err := f.crawler.Crawl(context.Background(), f.root, f.root.Dir(), func(d *root.Dir) error {
		visited = append(visited, d)
		return nil
	}); err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}

	want := []string{".", "src", "src/pkg"}
	if got := f.rel(t, visited); !slices.Equal(got, want) {
		t.Errorf("visited = %v, want %v", got, want)
	}
}

func TestCrawl_SubtreeVanished(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	src := filepath.Join(f.root.Path(), "src")
	f.failOn(src, SyscallOpenDir, &fs.PathError{Op: "open", Path: src, Err: fs.ErrNotExist})

	stats, err := f.crawler.Crawl(context.Background(), f.root, f.root.Dir(), nil)
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}
	if stats.Errors != 1 {
		t.Errorf("stats.Errors = %d, want 1", stats.Errors)
	}

	entries := f.sink.Entries()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	want := "opendir(" + src + ") -> file does not exist. Marking this portion of the tree deleted\n"
	if entries[0].Level != log.DebugLevel || entries[0].Msg != want {
		t.Errorf("entry = {%v %q}, want {%v %q}", entries[0].Level, entries[0].Msg, log.DebugLevel, want)
	}
	if w := f.root.RecrawlInfo().Warning; w != "" {
		t.Errorf("recrawl warning = %q, want empty", w)
	}
}

func TestCrawl_SubtreePermissionDenied(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	docs := filepath.Join(f.root.Path(), "docs")
	f.failOn(docs, SyscallReadDir, &fs.PathError{Op: "readdirent", Path: docs, Err: fs.ErrPermission})

	if _, err := f.crawler.Crawl(context.Background(), f.root, f.root.Dir(), nil); err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}

	want := "readdir(" + docs + ") -> permission denied. Marking this portion of the tree deleted"
	if w := f.root.RecrawlInfo().Warning; w != want {
		t.Errorf("recrawl warning = %q, want %q", w, want)
	}
	if f.root.Cancelled() {
		t.Error("subtree failure cancelled the root")
	}
}

func TestCrawl_RootInaccessible(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.failOn(f.root.Path(), SyscallOpenDir, &fs.PathError{Op: "open", Path: f.root.Path(), Err: fs.ErrPermission})

	_, err := f.crawler.Crawl(context.Background(), f.root, f.root.Dir(), nil)

	var rce *RootCancelledError
	if !errors.As(err, &rce) {
		t.Fatalf("Crawl() error = %v, want RootCancelledError", err)
	}
	if !errors.Is(err, ErrRootCancelled) {
		t.Error("errors.Is(err, ErrRootCancelled) = false")
	}
	reason, _ := f.root.FailureReason()
	if rce.Reason != reason || reason == "" {
		t.Errorf("RootCancelledError.Reason = %q, root reason = %q", rce.Reason, reason)
	}
	if !f.root.Cancelled() {
		t.Error("root not cancelled")
	}
}

func TestCrawl_HostPoisoned(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	src := filepath.Join(f.root.Path(), "src")
	limit := oserr.New(oserr.ResourceLimitExceeded, "too many open files")
	f.failOn(src, SyscallOpenDir, limit)

	start := f.clock.Now()
	_, err := f.crawler.Crawl(context.Background(), f.root, f.root.Dir(), nil)
	if !errors.Is(err, poison.ErrPoisoned) {
		t.Fatalf("Crawl() error = %v, want ErrPoisoned", err)
	}

	rec, ok := f.poison.Record()
	if !ok {
		t.Fatal("poison not recorded")
	}
	if rec.Path != src || rec.Syscall != SyscallOpenDir || !rec.Timestamp.After(start) {
		t.Errorf("poison record = %+v", rec)
	}
	if f.root.Cancelled() {
		t.Error("host poisoning cancelled the root directly")
	}
	if reason, _ := f.root.FailureReason(); reason != f.poison.Reason() {
		t.Errorf("failure reason = %q, want poison reason", reason)
	}
}

func TestCrawl_StopsWhenCancelled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.root.Cancel()

	_, err := f.crawler.Crawl(context.Background(), f.root, f.root.Dir(), nil)
	if !errors.Is(err, ErrRootCancelled) {
		t.Errorf("Crawl() error = %v, want ErrRootCancelled", err)
	}
}

func TestCrawl_ContextCancelled(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.crawler.Crawl(ctx, f.root, f.root.Dir(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Crawl() error = %v, want context.Canceled", err)
	}
}

func TestCrawl_VisitErrorAborts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	sentinel := errors.New("stop")

	_, err := f.crawler.Crawl(context.Background(), f.root, f.root.Dir(), func(*root.Dir) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Crawl() error = %v, want %v", err, sentinel)
	}
}

func TestCrawl_FileAsRoot(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "plain.txt")
	testutil.MustWriteFile(t, file, "x")
	r, err := root.New(context.Background(), file)
	if err != nil {
		t.Fatalf("root.New() error = %v", err)
	}

	sink := &warnerr.RecorderSink{}
	ps := poison.New(poison.Options{})
	c, err := New(Options{Handler: warnerr.NewHandler(ps, sink), Poison: ps})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = c.Crawl(context.Background(), r, r.Dir(), nil)
	if !errors.Is(err, ErrRootCancelled) {
		t.Fatalf("Crawl() error = %v, want ErrRootCancelled", err)
	}
	if len(sink.Entries()) != 1 || sink.Entries()[0].Level != log.ErrorLevel {
		t.Errorf("entries = %+v, want one ERROR entry", sink.Entries())
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	ps := poison.New(poison.Options{})
	h := warnerr.NewHandler(ps, &warnerr.RecorderSink{})

	tests := []struct {
		name string
		opts Options
	}{
		{name: "missing handler", opts: Options{Poison: ps}},
		{name: "missing poison", opts: Options{Handler: h}},
		{name: "bad pattern", opts: Options{Handler: h, Poison: ps, Ignore: []string{"[invalid"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := New(tt.opts); err == nil {
				t.Error("New() error = nil, want error")
			}
		})
	}
}

func TestDefaultIgnores_ReturnsCopy(t *testing.T) {
	t.Parallel()

	got := DefaultIgnores()
	got[0] = "mutated"
	if DefaultIgnores()[0] == "mutated" {
		t.Error("DefaultIgnores() exposes the internal slice")
	}
}
