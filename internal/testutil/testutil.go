// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// MustSetenv sets key to value and restores the previous state when the
// test finishes.
func MustSetenv(t testing.TB, key, value string) {
	t.Helper()
	originalValue, hadValue := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadValue {
			if err := os.Setenv(key, originalValue); err != nil {
				t.Errorf("failed to restore env %s: %v", key, err)
			}
			return
		}
		if err := os.Unsetenv(key); err != nil {
			t.Errorf("failed to unset env %s: %v", key, err)
		}
	})
}

// SetConfigHome points the platform config directory at dir for the rest
// of the test: APPDATA on Windows, HOME on macOS, XDG_CONFIG_HOME elsewhere.
func SetConfigHome(t testing.TB, dir string) {
	t.Helper()
	switch runtime.GOOS {
	case "windows":
		MustSetenv(t, "APPDATA", dir)
	case "darwin":
		MustSetenv(t, "HOME", dir)
	default:
		MustSetenv(t, "XDG_CONFIG_HOME", dir)
	}
}

// MustMkdirAll creates path and any missing parents.
func MustMkdirAll(t testing.TB, path string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(path, perm); err != nil {
		t.Fatalf("failed to create directory %s: %v", path, err)
	}
}

// MustWriteFile writes data to path, creating parent directories.
func MustWriteFile(t testing.TB, path string, data string) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// MustTree creates entries below base. Entries ending in "/" are
// directories, everything else is an empty file. Paths use forward
// slashes on every platform.
//
//	testutil.MustTree(t, dir, "src/", "src/main.go", ".git/HEAD")
func MustTree(t testing.TB, base string, entries ...string) {
	t.Helper()
	for _, entry := range entries {
		full := filepath.Join(base, filepath.FromSlash(strings.TrimSuffix(entry, "/")))
		if strings.HasSuffix(entry, "/") {
			MustMkdirAll(t, full, 0o755)
			continue
		}
		MustWriteFile(t, full, "")
	}
}
