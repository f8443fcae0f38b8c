// SPDX-License-Identifier: MPL-2.0

//go:build windows

package oserr

import (
	"fmt"
	"testing"
)

func TestFrom_Errno(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "ERROR_FILE_NOT_FOUND is not found", err: errnoFileNotFound, want: NotFound},
		{name: "ERROR_PATH_NOT_FOUND is not found", err: errnoPathNotFound, want: NotFound},
		{name: "ERROR_DIRECTORY is not a directory", err: errnoDirectory, want: NotADirectory},
		{name: "ERROR_CANT_RESOLVE_FILENAME is too many symlinks", err: errnoCantResolveFilename, want: TooManySymlinks},
		{name: "ERROR_ACCESS_DENIED is permission denied", err: errnoAccessDenied, want: PermissionDenied},
		{name: "ERROR_TOO_MANY_OPEN_FILES is a resource limit", err: errnoTooManyOpenFiles, want: ResourceLimitExceeded},
		{name: "ERROR_NOT_ENOUGH_MEMORY is a resource limit", err: errnoNotEnoughMemory, want: ResourceLimitExceeded},
		{name: "wrapped handle limit", err: fmt.Errorf("fsnotify: %w", errnoTooManyOpenFiles), want: ResourceLimitExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := From(tt.err); got.Code != tt.want {
				t.Errorf("From(%v).Code = %v, want %v", tt.err, got.Code, tt.want)
			}
		})
	}
}
