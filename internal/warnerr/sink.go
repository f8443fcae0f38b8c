// SPDX-License-Identifier: MPL-2.0

package warnerr

import (
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

type (
	// Sink receives diagnostic lines. msg is passed verbatim, including any
	// trailing newline.
	Sink interface {
		Emit(level log.Level, msg string)
	}

	// LoggerSink writes diagnostics to a charm logger.
	LoggerSink struct {
		Logger *log.Logger
	}

	// Entry is one diagnostic line captured by a RecorderSink.
	Entry struct {
		Level log.Level
		Msg   string
	}

	// RecorderSink keeps every emitted line in memory.
	RecorderSink struct {
		mu      sync.Mutex
		entries []Entry
	}
)

// Emit logs msg at level. The logger terminates records itself, so one
// trailing newline is dropped.
func (s LoggerSink) Emit(level log.Level, msg string) {
	s.Logger.Log(level, strings.TrimSuffix(msg, "\n"))
}

// Emit records the line.
func (s *RecorderSink) Emit(level log.Level, msg string) {
	s.mu.Lock()
	s.entries = append(s.entries, Entry{Level: level, Msg: msg})
	s.mu.Unlock()
}

// Entries returns a copy of the recorded lines in emission order.
func (s *RecorderSink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
