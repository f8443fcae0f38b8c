// SPDX-License-Identifier: MPL-2.0

package warnerr

import (
	"time"

	"github.com/dirwatch/dirwatch/internal/oserr"

	"github.com/charmbracelet/log"
)

type (
	// Root is the watch root being traversed.
	Root interface {
		Path() string
		// SetFailureReason stores reason unless one is already set.
		SetFailureReason(reason string) bool
		// SetRecrawlWarning replaces the standing warning under the
		// recrawl-info lock.
		SetRecrawlWarning(warning string)
		// Cancel stops the watch; it must be idempotent.
		Cancel()
	}

	// Dir is the directory whose open failed.
	Dir interface {
		FullPath() string
	}

	// Poisoner records host-fatal conditions.
	Poisoner interface {
		Set(path string, now time.Time, syscall string, err oserr.Error)
		Reason() string
	}

	// Handler applies open-failure policy to watch roots. It has no state of
	// its own and may be used from many goroutines.
	Handler struct {
		poison Poisoner
		sink   Sink
	}
)

// NewHandler returns a Handler that records host-fatal conditions in poison
// and emits diagnostics to sink.
func NewHandler(poison Poisoner, sink Sink) *Handler {
	return &Handler{poison: poison, sink: sink}
}

// HandleOpenError applies the failure policy for one failed open of dir
// within r. syscall names the failing call for the diagnostic text.
func (h *Handler) HandleOpenError(r Root, dir Dir, now time.Time, syscall string, err oserr.Error) {
	dirName := dir.FullPath()
	disposition := Classify(err.Code)

	if disposition == HostFatal {
		h.poison.Set(dirName, now, syscall, err)
		r.SetFailureReason(h.poison.Reason())
		return
	}
	logWarning := disposition != Ignorable

	if dirName == r.Path() {
		warn := syscall + "(" + dirName + ") -> " + err.Msg + ". Root is inaccessible; cancelling watch\n"
		h.sink.Emit(log.ErrorLevel, warn)
		r.SetFailureReason(warn)
		r.Cancel()
		return
	}

	warn := syscall + "(" + dirName + ") -> " + err.Msg + ". Marking this portion of the tree deleted"
	level := log.ErrorLevel
	if err.Code == oserr.NotFound {
		level = log.DebugLevel
	}
	h.sink.Emit(level, warn+"\n")
	if logWarning {
		r.SetRecrawlWarning(warn)
	}
}
