// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dirwatch/dirwatch/internal/issue"
	"github.com/dirwatch/dirwatch/pkg/cueutil"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "dirwatch"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. DIRWATCH_LOG_LEVEL.
	EnvPrefix = "DIRWATCH"
)

// ErrConfigExists is returned by WriteDefault when the file is already there.
var ErrConfigExists = errors.New("config file already exists")

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the dirwatch configuration directory using
// platform-specific conventions: %APPDATA% on Windows, ~/Library/Application
// Support on macOS and $XDG_CONFIG_HOME (defaulting to ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, AppName), nil
}

// LoadWithSource loads the configuration and reports which file it came
// from. The path is empty when only defaults and the environment applied.
func LoadWithSource(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	if err := opts.Validate(); err != nil {
		return nil, "", err
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("roots", defaults.Roots)
	v.SetDefault("ignore", defaults.Ignore)
	v.SetDefault("debounce", string(defaults.Debounce))
	v.SetDefault("log_level", string(defaults.LogLevel))
	v.SetDefault("log_format", string(defaults.LogFormat))
	v.SetDefault("trouble_url", defaults.TroubleURL)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	path, err := resolvePath(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the values match the schema shown by 'dirwatch config init'").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Use a Go duration such as \"250ms\" for debounce").
			WithSuggestion("Check " + EnvPrefix + "_* environment variables for stray values").
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, path, nil
}

// resolvePath picks the file to load: an explicit path (which must exist),
// then the config directory, then BaseDir. No file is not an error.
func resolvePath(opts LoadOptions) (string, error) {
	name := ConfigFileName + "." + ConfigFileExt

	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'dirwatch config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	if p := filepath.Join(dir, name); fileExists(p) {
		return p, nil
	}

	if p := filepath.Join(opts.BaseDir, name); fileExists(p) {
		return p, nil
	}
	return "", nil
}

// loadCUEIntoViper validates the file against #Config and merges it over the
// defaults already registered in v.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	res, err := cueutil.Decode[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*res.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// WriteDefault writes the default configuration to config.cue in dir (the
// platform config directory when dir is empty) and returns the file path.
// An existing file is only replaced when force is set.
func WriteDefault(dir string, force bool) (string, error) {
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if !force && fileExists(path) {
		return path, fmt.Errorf("%w: %s", ErrConfigExists, path)
	}
	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// GenerateCUE renders cfg as a config.cue document that loads back to the
// same values.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// dirwatch configuration\n")
	sb.WriteString("// See https://github.com/dirwatch/dirwatch for documentation.\n\n")

	writeList := func(key string, items []string) {
		if len(items) == 0 {
			fmt.Fprintf(&sb, "%s: []\n", key)
			return
		}
		fmt.Fprintf(&sb, "%s: [\n", key)
		for _, item := range items {
			fmt.Fprintf(&sb, "\t%q,\n", item)
		}
		sb.WriteString("]\n")
	}
	writeList("roots", cfg.Roots)
	writeList("ignore", cfg.Ignore)

	fmt.Fprintf(&sb, "\ndebounce:    %q\n", cfg.Debounce)
	fmt.Fprintf(&sb, "log_level:   %q\n", cfg.LogLevel)
	fmt.Fprintf(&sb, "log_format:  %q\n", cfg.LogFormat)
	fmt.Fprintf(&sb, "trouble_url: %q\n", cfg.TroubleURL)

	return sb.String()
}

// EncodeTOML renders cfg as TOML.
func EncodeTOML(cfg *Config) ([]byte, error) {
	out, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config as TOML: %w", err)
	}
	return out, nil
}
