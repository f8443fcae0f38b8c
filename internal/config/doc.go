// SPDX-License-Identifier: MPL-2.0

// Package config loads dirwatch settings using Viper with CUE as the file
// format.
//
// The file is looked up at an explicit path, then config.cue in the
// platform config directory ($XDG_CONFIG_HOME/dirwatch on Linux,
// ~/Library/Application Support/dirwatch on macOS, %APPDATA%\dirwatch on
// Windows), then config.cue in the working directory. Documents are checked
// against the embedded config_schema.cue before being merged over the
// defaults, and DIRWATCH_* environment variables override both.
package config
