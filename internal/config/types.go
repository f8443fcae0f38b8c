// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dirwatch/dirwatch/internal/poison"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// LogLevelDebug logs every handled open failure, including vanished paths.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs warnings and errors.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs errors only.
	LogLevelError LogLevel = "error"

	// LogFormatText is charmbracelet/log's human readable formatter.
	LogFormatText LogFormat = "text"
	// LogFormatJSON emits one JSON object per line.
	LogFormatJSON LogFormat = "json"
	// LogFormatLogfmt emits key=value pairs.
	LogFormatLogfmt LogFormat = "logfmt"

	// DefaultDebounce is the quiet period before changes are delivered.
	DefaultDebounce Debounce = "500ms"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat is returned when a LogFormat value is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrInvalidDebounce is returned when a Debounce value is not a positive duration.
	ErrInvalidDebounce = errors.New("invalid debounce")
	// ErrInvalidRootPath is returned when a root entry is blank.
	ErrInvalidRootPath = errors.New("invalid root path")
	// ErrInvalidIgnorePattern is returned when an ignore entry is not a doublestar glob.
	ErrInvalidIgnorePattern = errors.New("invalid ignore pattern")
	// ErrInvalidTroubleURL is returned when TroubleURL is not an absolute http(s) URL.
	ErrInvalidTroubleURL = errors.New("invalid trouble URL")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel selects the minimum level written to the log.
	LogLevel string

	// LogFormat selects the log formatter.
	LogFormat string

	// Debounce is a Go duration string such as "250ms".
	Debounce string

	// InvalidValueError reports a single field value that failed
	// validation. It wraps the field's sentinel error.
	InvalidValueError struct {
		Field  string
		Value  string
		Reason string
		err    error
	}

	// InvalidConfigError is returned when a Config has invalid fields. It
	// wraps ErrInvalidConfig and collects the field-level errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Roots are watched when no paths are given on the command line.
		Roots []string `json:"roots" mapstructure:"roots" toml:"roots"`
		// Ignore adds doublestar globs for directories the crawler skips.
		Ignore []string `json:"ignore" mapstructure:"ignore" toml:"ignore"`
		// Debounce is the quiet period before changes are delivered.
		Debounce Debounce `json:"debounce" mapstructure:"debounce" toml:"debounce"`
		// LogLevel is the minimum level logged.
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level" toml:"log_level"`
		// LogFormat picks the log formatter.
		LogFormat LogFormat `json:"log_format" mapstructure:"log_format" toml:"log_format"`
		// TroubleURL is the base of the link printed in poison diagnostics.
		TroubleURL string `json:"trouble_url" mapstructure:"trouble_url" toml:"trouble_url"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Roots:      []string{},
		Ignore:     []string{},
		Debounce:   DefaultDebounce,
		LogLevel:   LogLevelInfo,
		LogFormat:  LogFormatText,
		TroubleURL: poison.DefaultTroubleURL,
	}
}

// IsValid reports whether every field of c is valid, collecting the field
// errors into a single InvalidConfigError.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for i, r := range c.Roots {
		if strings.TrimSpace(r) == "" {
			errs = append(errs, newInvalid(fmt.Sprintf("roots[%d]", i), r, "must not be blank", ErrInvalidRootPath))
		}
	}
	for i, pat := range c.Ignore {
		if !doublestar.ValidatePattern(pat) {
			errs = append(errs, newInvalid(fmt.Sprintf("ignore[%d]", i), pat, "not a valid glob", ErrInvalidIgnorePattern))
		}
	}
	if valid, fieldErrs := c.Debounce.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.LogLevel.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.LogFormat.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if u, err := url.Parse(c.TroubleURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, newInvalid("trouble_url", c.TroubleURL, "must be an absolute http(s) URL", ErrInvalidTroubleURL))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns the field errors and ErrInvalidConfig so errors.Is matches
// both the aggregate and the individual sentinels.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

func newInvalid(field, value, reason string, sentinel error) *InvalidValueError {
	return &InvalidValueError{Field: field, Value: value, Reason: reason, err: sentinel}
}

// Error implements the error interface for InvalidValueError.
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s: %s %q: %s", e.Field, e.err, e.Value, e.Reason)
}

// Unwrap returns the field's sentinel error.
func (e *InvalidValueError) Unwrap() error { return e.err }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{newInvalid("log_level", string(l), "valid: debug, info, warn, error", ErrInvalidLogLevel)}
	}
}

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogFormat is one of the defined formats.
func (f LogFormat) IsValid() (bool, []error) {
	switch f {
	case LogFormatText, LogFormatJSON, LogFormatLogfmt:
		return true, nil
	default:
		return false, []error{newInvalid("log_format", string(f), "valid: text, json, logfmt", ErrInvalidLogFormat)}
	}
}

// String returns the string representation of the LogFormat.
func (f LogFormat) String() string { return string(f) }

// Duration parses the debounce value.
func (d Debounce) Duration() (time.Duration, error) {
	v, err := time.ParseDuration(string(d))
	if err != nil {
		return 0, newInvalid("debounce", string(d), err.Error(), ErrInvalidDebounce)
	}
	if v <= 0 {
		return 0, newInvalid("debounce", string(d), "must be positive", ErrInvalidDebounce)
	}
	return v, nil
}

// IsValid returns whether the Debounce parses to a positive duration.
func (d Debounce) IsValid() (bool, []error) {
	if _, err := d.Duration(); err != nil {
		return false, []error{err}
	}
	return true, nil
}

// String returns the string representation of the Debounce.
func (d Debounce) String() string { return string(d) }
