// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dirwatch/dirwatch/internal/config"

	"github.com/charmbracelet/log"
)

func TestLoadConfig_Flags(t *testing.T) {
	t.Parallel()

	app := testApp(nil)

	cfg, err := app.loadConfig(context.Background(), &rootFlagValues{verbose: true, logFormat: "json"})
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.LogLevel != config.LogLevelDebug || cfg.LogFormat != config.LogFormatJSON {
		t.Errorf("LogLevel/LogFormat = %s/%s", cfg.LogLevel, cfg.LogFormat)
	}

	_, err = app.loadConfig(context.Background(), &rootFlagValues{logFormat: "yaml"})
	if !errors.Is(err, config.ErrInvalidLogFormat) {
		t.Errorf("loadConfig(--log-format yaml) error = %v, want ErrInvalidLogFormat", err)
	}
}

func TestLoadConfig_ProviderError(t *testing.T) {
	t.Parallel()

	want := errors.New("broken")
	app := &App{Config: staticProvider{err: want}}
	if _, err := app.loadConfig(context.Background(), &rootFlagValues{}); !errors.Is(err, want) {
		t.Errorf("loadConfig() error = %v, want %v", err, want)
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format config.LogFormat
		level  config.LogLevel
		check  func(t *testing.T, out string)
	}{
		{
			format: config.LogFormatJSON,
			level:  config.LogLevelInfo,
			check: func(t *testing.T, out string) {
				t.Helper()
				var rec map[string]any
				if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &rec); err != nil {
					t.Fatalf("not JSON: %q (%v)", out, err)
				}
				if rec["msg"] != "hello" || !strings.Contains(fmt.Sprint(rec["prefix"]), "dirwatch") {
					t.Errorf("record = %v", rec)
				}
			},
		},
		{
			format: config.LogFormatLogfmt,
			level:  config.LogLevelInfo,
			check: func(t *testing.T, out string) {
				t.Helper()
				if !strings.Contains(out, "msg=hello") {
					t.Errorf("logfmt output = %q", out)
				}
			},
		},
		{
			format: config.LogFormatText,
			level:  config.LogLevelError,
			check: func(t *testing.T, out string) {
				t.Helper()
				if out != "" {
					t.Errorf("info line logged at error level: %q", out)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.format)+"/"+string(tt.level), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			cfg := config.DefaultConfig()
			cfg.LogFormat = tt.format
			cfg.LogLevel = tt.level

			logger := newLogger(&buf, cfg)
			logger.Info("hello")
			tt.check(t, buf.String())
		})
	}
}

func TestNewLogger_DebugLevel(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.LogLevel = config.LogLevelDebug
	if got := newLogger(&bytes.Buffer{}, cfg).GetLevel(); got != log.DebugLevel {
		t.Errorf("level = %v, want debug", got)
	}
}

func TestNewSession_InvalidIgnore(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Ignore = []string{"[broken"}
	if _, err := testApp(cfg).newSession(cfg, log.New(&bytes.Buffer{})); err == nil {
		t.Error("newSession() accepted an invalid ignore pattern")
	}
}
