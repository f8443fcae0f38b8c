// SPDX-License-Identifier: MPL-2.0

// Package poison records the host-wide "poisoned" condition: a resource
// exhaustion error after which no watch on this process can be trusted.
//
// State is an explicit value rather than a package global so each watcher
// process (and each test) owns its own instance.
package poison

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dirwatch/dirwatch/internal/oserr"

	"github.com/charmbracelet/log"
)

// DefaultTroubleURL is the documentation page linked from the poison reason.
const DefaultTroubleURL = "https://github.com/dirwatch/dirwatch/blob/main/docs/troubleshooting.md"

// ErrPoisoned is returned by operations refused because the host is poisoned.
var ErrPoisoned = errors.New("host is poisoned")

type (
	// Record describes the host-fatal condition that poisoned the process.
	Record struct {
		Path      string
		Timestamp time.Time
		Syscall   string
		Err       oserr.Error
	}

	// Options configures a State.
	Options struct {
		// TroubleURL overrides DefaultTroubleURL.
		TroubleURL string
		// Logger receives the reason when the state is first poisoned.
		// nil discards it.
		Logger *log.Logger
	}

	// State holds at most one poison record. It is safe for concurrent use.
	State struct {
		mu         sync.RWMutex
		record     *Record
		reason     string
		troubleURL string
		logger     *log.Logger
	}
)

// New returns an unpoisoned State.
func New(opts Options) *State {
	url := opts.TroubleURL
	if url == "" {
		url = DefaultTroubleURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &State{troubleURL: url, logger: logger}
}

// Set poisons the process. Only the first call takes effect; the reason
// stays descriptive of the first host-fatal condition.
func (s *State) Set(path string, now time.Time, syscall string, err oserr.Error) {
	s.mu.Lock()
	if s.record != nil {
		s.mu.Unlock()
		return
	}
	s.record = &Record{Path: path, Timestamp: now, Syscall: syscall, Err: err}
	s.reason = fmt.Sprintf(
		"A non-recoverable condition has triggered.  dirwatch needs your help!\n"+
			"The triggering condition was at timestamp=%d: %s(%s) -> %s\n"+
			"All requests will continue to fail with this message until you resolve\n"+
			"the underlying problem.  You will find more information on fixing this at\n"+
			"%s#poison-%s\n",
		now.Unix(), syscall, path, err.Msg, s.troubleURL, syscall)
	reason := s.reason
	s.mu.Unlock()

	s.logger.Error(reason)
}

// Reason returns the poison reason text, or "" when not poisoned.
func (s *State) Reason() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reason
}

// Poisoned reports whether Set has been called.
func (s *State) Poisoned() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record != nil
}

// Record returns the poison record, if any.
func (s *State) Record() (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.record == nil {
		return Record{}, false
	}
	return *s.record, true
}

// Err returns nil when the host is healthy, otherwise ErrPoisoned wrapped
// with the reason.
func (s *State) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.record == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPoisoned, s.reason)
}
