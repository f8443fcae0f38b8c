// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dirwatch/dirwatch/internal/crawl"
	"github.com/dirwatch/dirwatch/internal/poison"
	"github.com/dirwatch/dirwatch/internal/root"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// crawlReport is the outcome of crawling one root.
type crawlReport struct {
	path      string
	stats     crawl.Stats
	reason    string
	cancelled bool
	recrawl   root.RecrawlInfo
}

func newCrawlCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl [paths...]",
		Short: "Crawl directory trees once and report what was reachable",
		Long: `Crawl each directory tree once, applying the same open-failure policy
as watch, and print a report per root: directories and files seen, open
failures, the failure reason of a cancelled root and any warning attached
to it. Crawling stops at the first root that exhausts a host resource.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd, app, flags, args)
		},
	}
}

func runCrawl(cmd *cobra.Command, app *App, flags *rootFlagValues, args []string) error {
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

	var (
		reports  []crawlReport
		firstErr error
	)
	for _, path := range rootPaths(args, cfg) {
		r, err := root.New(ctx, path)
		if err != nil {
			return err
		}
		stats, err := s.crawler.Crawl(ctx, r, r.Dir(), nil)
		rep := crawlReport{path: r.Path(), stats: stats, cancelled: r.Cancelled(), recrawl: r.RecrawlInfo()}
		rep.reason, _ = r.FailureReason()
		reports = append(reports, rep)
		r.Cancel()

		switch {
		case err == nil:
		case errors.Is(err, crawl.ErrRootCancelled):
			if firstErr == nil {
				firstErr = watchError(r.Path(), err)
			}
		case errors.Is(err, poison.ErrPoisoned):
			firstErr = watchError(r.Path(), err)
		default:
			return err
		}
		if s.poison.Poisoned() {
			break
		}
	}

	out := cmd.OutOrStdout()
	for _, rep := range reports {
		writeReport(out, rep)
	}
	if reason := s.poison.Reason(); reason != "" {
		fmt.Fprintln(out, ErrorStyle.Render("Host poisoned"))
		fmt.Fprint(out, reason)
	}

	if firstErr == nil {
		return nil
	}
	renderGuidance(cmd.ErrOrStderr(), firstErr, flags.verbose)
	code := exitFailure
	if errors.Is(firstErr, poison.ErrPoisoned) {
		code = exitPoisoned
	}
	return &ExitError{Code: code, Err: firstErr}
}

// writeReport renders one root's outcome as a bordered block.
func writeReport(w io.Writer, rep crawlReport) {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
	}

	status := SuccessStyle.Render("ok")
	if rep.cancelled {
		status = ErrorStyle.Render("cancelled")
	}

	rows := []string{
		PathStyle.Render(rep.path),
		row("status", status),
		row("dirs", strconv.Itoa(rep.stats.Dirs)),
		row("files", strconv.Itoa(rep.stats.Files)),
		row("errors", strconv.Itoa(rep.stats.Errors)),
	}
	if rep.cancelled {
		rows = append(rows, row("reason", strings.TrimSuffix(rep.reason, "\n")))
	}
	if rep.recrawl.Warning != "" {
		rows = append(rows, row("warning", WarningStyle.Render(rep.recrawl.Warning)))
	}

	fmt.Fprintln(w, reportStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
}
