// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/dirwatch/dirwatch/internal/issue"
	"github.com/dirwatch/dirwatch/internal/poison"
	"github.com/dirwatch/dirwatch/internal/root"
	"github.com/dirwatch/dirwatch/internal/watch"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// syncWriter serializes change output from concurrent watchers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Println(a ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, a...)
}

func newWatchCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Watch directory trees and print changed paths",
		Long: `Watch one or more directory trees until interrupted, printing every
changed path after the debounce period.

Without arguments the roots from the configuration file are watched, or the
current directory when none are configured. A root that becomes
inaccessible stops its own watch; the others keep running. Running out of
file descriptors or inotify watches stops every watch.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, app, flags, args)
		},
	}
}

func runWatch(cmd *cobra.Command, app *App, flags *rootFlagValues, args []string) error {
	ctx := cmd.Context()

	cfg, err := app.loadConfig(ctx, flags)
	if err != nil {
		renderGuidance(cmd.ErrOrStderr(), err, flags.verbose)
		return err
	}
	s, err := app.newSession(cfg, newLogger(cmd.ErrOrStderr(), cfg))
	if err != nil {
		return err
	}

	out := &syncWriter{w: cmd.OutOrStdout()}

	var (
		mu       sync.Mutex
		failures []error
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, path := range rootPaths(args, cfg) {
		g.Go(func() error {
			err := s.watchRoot(gctx, path, out)
			switch {
			case err == nil:
				return nil
			case errors.Is(err, poison.ErrPoisoned):
				// Nothing on this host can be trusted any more; returning
				// the error cancels every other root.
				return err
			default:
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
				return nil
			}
		})
	}

	if err := g.Wait(); err != nil {
		renderGuidance(cmd.ErrOrStderr(), err, flags.verbose)
		return &ExitError{Code: exitPoisoned, Err: err}
	}
	if len(failures) > 0 {
		renderGuidance(cmd.ErrOrStderr(), failures[0], flags.verbose)
		return &ExitError{Code: exitFailure, Err: errors.Join(failures...)}
	}
	return nil
}

// watchRoot watches one root until ctx ends or the root is cancelled.
func (s *session) watchRoot(ctx context.Context, path string, out *syncWriter) error {
	r, err := root.New(ctx, path)
	if err != nil {
		return err
	}
	defer r.Cancel()

	w, err := watch.New(ctx, watch.Config{
		Root:     r,
		Crawler:  s.crawler,
		Handler:  s.handler,
		Poison:   s.poison,
		Debounce: s.debounce,
		Logger:   s.logger.With("root", r.Path()),
		OnChange: func(_ context.Context, changed []string) error {
			for _, rel := range changed {
				out.Println(PathStyle.Render(filepath.Join(r.Path(), filepath.FromSlash(rel))))
			}
			return nil
		},
	})
	if err != nil {
		return watchError(r.Path(), err)
	}

	if info := r.RecrawlInfo(); info.Warning != "" {
		s.logger.Warn("parts of the tree are not watched", "root", r.Path(), "warning", info.Warning)
	}
	s.logger.Info("watching", "root", r.Path(), "dirs", len(w.Watched()))

	if err := w.Run(ctx); err != nil {
		return watchError(r.Path(), err)
	}
	return nil
}

// watchError attaches the operation, root and guidance to a watch failure.
func watchError(path string, err error) error {
	ec := issue.NewErrorContext().
		WithOperation("watch root").
		WithResource(path).
		WithIssue(issueFor(err))
	if errors.Is(err, poison.ErrPoisoned) {
		ec.WithSuggestion("Raise the exhausted limit, then restart dirwatch")
	} else {
		ec.WithSuggestion("Check that the directory still exists and is readable")
	}
	return ec.Wrap(err).BuildError()
}
