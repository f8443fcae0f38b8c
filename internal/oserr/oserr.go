// SPDX-License-Identifier: MPL-2.0

package oserr

import (
	"errors"
	"io/fs"
	"syscall"
)

const (
	// Other is any condition not covered by a more specific code.
	Other Code = iota
	// NotFound means the path no longer exists.
	NotFound
	// NotADirectory means a path component is not a directory.
	NotADirectory
	// TooManySymlinks means symlink resolution looped or exceeded the limit.
	TooManySymlinks
	// PermissionDenied means the process lacks access to the path.
	PermissionDenied
	// ResourceLimitExceeded means a per-process or system-wide limit
	// (descriptors, watches, memory) has been reached.
	ResourceLimitExceeded
)

type (
	// Code is the classification-relevant kind of a system error.
	Code int

	// Error is a system error reduced to its Code plus the human readable
	// message of the underlying errno.
	Error struct {
		Code Code
		// Msg is the errno text, e.g. "no such file or directory".
		Msg string
		// Err is the original error, if any.
		Err error
	}
)

// String returns a stable lower-case name for the code.
func (c Code) String() string {
	switch c {
	case NotFound:
		return "not_found"
	case NotADirectory:
		return "not_a_directory"
	case TooManySymlinks:
		return "too_many_symlinks"
	case PermissionDenied:
		return "permission_denied"
	case ResourceLimitExceeded:
		return "resource_limit_exceeded"
	case Other:
		return "other"
	default:
		return "other"
	}
}

// New builds an Error without an underlying cause.
func New(code Code, msg string) Error {
	return Error{Code: code, Msg: msg}
}

// From reduces err to an Error. The message is taken from the innermost
// errno when there is one so that path wrappers do not leak into log text.
func From(err error) Error {
	if err == nil {
		return Error{Code: Other}
	}

	var classified Error
	if errors.As(err, &classified) {
		return classified
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return Error{Code: codeForErrno(errno), Msg: errno.Error(), Err: err}
	}

	code := Other
	switch {
	case errors.Is(err, fs.ErrNotExist):
		code = NotFound
	case errors.Is(err, fs.ErrPermission):
		code = PermissionDenied
	}

	msg := err.Error()
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Err != nil {
		msg = pathErr.Err.Error()
	}
	return Error{Code: code, Msg: msg, Err: err}
}

// Error returns the errno text.
func (e Error) Error() string {
	return e.Msg
}

// Unwrap returns the original error.
func (e Error) Unwrap() error {
	return e.Err
}
