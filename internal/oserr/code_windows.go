// SPDX-License-Identifier: MPL-2.0

//go:build windows

package oserr

import "syscall"

// Win32 system error codes that matter when opening a directory.
const (
	errnoFileNotFound        = syscall.Errno(2)
	errnoPathNotFound        = syscall.Errno(3)
	errnoTooManyOpenFiles    = syscall.Errno(4)
	errnoAccessDenied        = syscall.Errno(5)
	errnoNotEnoughMemory     = syscall.Errno(8)
	errnoDirectory           = syscall.Errno(267)
	errnoCantResolveFilename = syscall.Errno(1921)
)

// ErrNotDir is the error reported when a directory path names a file.
var ErrNotDir error = errnoDirectory

// codeForErrno classifies a Win32 error code. ReadDirectoryChangesW has no
// inotify-style watch limit, so handle and memory exhaustion stand in for
// the resource limit group.
func codeForErrno(errno syscall.Errno) Code {
	switch errno {
	case errnoFileNotFound, errnoPathNotFound:
		return NotFound
	case errnoDirectory:
		return NotADirectory
	case errnoCantResolveFilename:
		return TooManySymlinks
	case errnoAccessDenied:
		return PermissionDenied
	case errnoTooManyOpenFiles, errnoNotEnoughMemory:
		return ResourceLimitExceeded
	default:
		return Other
	}
}
