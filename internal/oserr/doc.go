// SPDX-License-Identifier: MPL-2.0

// Package oserr maps operating system errors onto the small closed set of
// conditions the watcher reasons about when a directory cannot be opened.
//
// The mapping from raw errno values is platform specific (see
// code_unix.go and code_windows.go); everything else is portable.
package oserr
