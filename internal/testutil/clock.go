// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"time"
)

type (
	// Clock supplies the current time. Production code passes time.Now;
	// tests pass FakeClock.Now.
	Clock interface {
		Now() time.Time
	}

	// FakeClock is a manually controlled Clock. With a non-zero step every
	// call to Now advances time by step after reading it, so successive
	// events get distinct timestamps.
	FakeClock struct {
		mu      sync.Mutex
		current time.Time
		step    time.Duration
	}
)

// ReferenceTime is the default starting point of a FakeClock.
var ReferenceTime = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// NewFakeClock creates a FakeClock at initial, or at ReferenceTime when
// initial is zero.
func NewFakeClock(initial time.Time) *FakeClock {
	if initial.IsZero() {
		initial = ReferenceTime
	}
	return &FakeClock{current: initial}
}

// NewSteppingClock creates a FakeClock at ReferenceTime that advances by
// step on every Now call.
func NewSteppingClock(step time.Duration) *FakeClock {
	return &FakeClock{current: ReferenceTime, step: step}
}

// Now returns the fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.current
	c.current = c.current.Add(c.step)
	return now
}

// Advance moves the fake time forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

// Set moves the fake time to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}
