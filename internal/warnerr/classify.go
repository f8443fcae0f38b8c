// SPDX-License-Identifier: MPL-2.0

package warnerr

import "github.com/dirwatch/dirwatch/internal/oserr"

const (
	// Ignorable errors are expected churn: the directory was removed,
	// replaced by a file, or raced through a symlink after it was queued.
	Ignorable Disposition = iota
	// Warn errors are worth a standing recrawl warning but do not threaten
	// the rest of the watch.
	Warn
	// HostFatal errors mean the host cannot sustain watching at all.
	HostFatal
)

// Disposition is the verdict on how severely an open failure is treated.
type Disposition int

// String returns the disposition name.
func (d Disposition) String() string {
	switch d {
	case Ignorable:
		return "ignorable"
	case Warn:
		return "warn"
	case HostFatal:
		return "host_fatal"
	default:
		return "unknown"
	}
}

// Classify maps an error code to its disposition. Codes without a specific
// entry are treated as Warn so unknown conditions are surfaced.
func Classify(code oserr.Code) Disposition {
	switch code {
	case oserr.NotFound, oserr.NotADirectory, oserr.TooManySymlinks:
		return Ignorable
	case oserr.PermissionDenied:
		return Warn
	case oserr.ResourceLimitExceeded:
		return HostFatal
	case oserr.Other:
		return Warn
	default:
		return Warn
	}
}
