// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dirwatch/dirwatch/internal/config"
	"github.com/dirwatch/dirwatch/internal/crawl"
	"github.com/dirwatch/dirwatch/internal/poison"
	"github.com/dirwatch/dirwatch/internal/warnerr"

	"github.com/charmbracelet/log"
)

type (
	// App carries the dependencies shared by all commands.
	App struct {
		Config config.Provider
		// Now supplies timestamps for poison records and crawls.
		Now func() time.Time
	}

	// session is the per-invocation state: one poison state shared by every
	// root, and the handler and crawler built around it.
	session struct {
		cfg      *config.Config
		logger   *log.Logger
		poison   *poison.State
		handler  *warnerr.Handler
		crawler  *crawl.Crawler
		debounce time.Duration
	}
)

// NewApp creates an App backed by the filesystem config provider.
func NewApp() *App {
	return &App{Config: config.NewProvider(), Now: time.Now}
}

// loadConfig loads the configuration and applies the persistent flags.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return nil, err
	}
	if flags.verbose {
		cfg.LogLevel = config.LogLevelDebug
	}
	if flags.logFormat != "" {
		format := config.LogFormat(flags.logFormat)
		if valid, errs := format.IsValid(); !valid {
			return nil, fmt.Errorf("--log-format: %w", errs[0])
		}
		cfg.LogFormat = format
	}
	return cfg, nil
}

// newLogger builds the charm logger described by cfg.
func newLogger(w io.Writer, cfg *config.Config) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel.String())
	if err != nil {
		level = log.InfoLevel
	}
	logger := log.NewWithOptions(w, log.Options{
		Prefix:          config.AppName,
		ReportTimestamp: true,
		Level:           level,
	})
	switch cfg.LogFormat {
	case config.LogFormatJSON:
		logger.SetFormatter(log.JSONFormatter)
	case config.LogFormatLogfmt:
		logger.SetFormatter(log.LogfmtFormatter)
	default:
		logger.SetFormatter(log.TextFormatter)
	}
	return logger
}

// newSession wires the open-failure policy for one command run.
func (a *App) newSession(cfg *config.Config, logger *log.Logger) (*session, error) {
	debounce, err := cfg.Debounce.Duration()
	if err != nil {
		return nil, err
	}

	ps := poison.New(poison.Options{TroubleURL: cfg.TroubleURL, Logger: logger})
	handler := warnerr.NewHandler(ps, warnerr.LoggerSink{Logger: logger})
	crawler, err := crawl.New(crawl.Options{
		Handler: handler,
		Poison:  ps,
		Ignore:  cfg.Ignore,
		Now:     a.Now,
	})
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:      cfg,
		logger:   logger,
		poison:   ps,
		handler:  handler,
		crawler:  crawler,
		debounce: debounce,
	}, nil
}

// rootPaths returns the roots named on the command line, falling back to
// the configured roots and then the working directory.
func rootPaths(args []string, cfg *config.Config) []string {
	switch {
	case len(args) > 0:
		return args
	case len(cfg.Roots) > 0:
		return cfg.Roots
	default:
		return []string{"."}
	}
}
