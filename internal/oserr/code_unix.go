// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package oserr

import "syscall"

// ErrNotDir is the errno reported when a directory path names a file.
var ErrNotDir error = syscall.ENOTDIR

// codeForErrno classifies a raw errno. The resource limit group mirrors the
// inotify failure modes:
//   - ENOSPC: inotify watch limit exceeded (fs.inotify.max_user_watches)
//   - EMFILE: per-process file descriptor limit exceeded
//   - ENFILE: system-wide file descriptor limit exceeded
//   - ENOMEM: kernel could not allocate the watch or descriptor
func codeForErrno(errno syscall.Errno) Code {
	switch errno {
	case syscall.ENOENT:
		return NotFound
	case syscall.ENOTDIR:
		return NotADirectory
	case syscall.ELOOP:
		return TooManySymlinks
	case syscall.EACCES, syscall.EPERM:
		return PermissionDenied
	case syscall.ENOSPC, syscall.EMFILE, syscall.ENFILE, syscall.ENOMEM:
		return ResourceLimitExceeded
	default:
		return Other
	}
}
