// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlagValues holds the persistent flags shared by every subcommand.
type rootFlagValues struct {
	configPath string
	verbose    bool
	logFormat  string
}

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "dirwatch",
		Short: "Watch directory trees and survive what the filesystem throws at them",
		Long: TitleStyle.Render("dirwatch") + SubtitleStyle.Render(" - resilient directory watching") + `

dirwatch keeps a live watch on one or more directory trees. Subtrees that
vanish are skipped quietly, unreadable ones are reported, a root that
disappears cancels its own watch, and running out of file descriptors or
inotify watches stops every watch on the host with instructions.

` + SubtitleStyle.Render("Examples:") + `
  dirwatch watch ~/src ~/notes   Watch two trees and print changed paths
  dirwatch crawl /srv/data       Crawl once and report what was reachable
  dirwatch config show           Show the effective configuration`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/dirwatch/config.cue)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log at debug level and show full error chains")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log format: text, json or logfmt (overrides config)")

	rootCmd.AddCommand(
		newWatchCommand(app, flags),
		newCrawlCommand(app, flags),
		newConfigCommand(app, flags),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. It is called by main.main().
func Execute() {
	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		newRootCommand(NewApp()),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
