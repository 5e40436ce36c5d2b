// Package testing provides utilities for testing applications that use
// licensekit: a manually advanced clock and scripted backend fakes, so the
// timer policies and fallback paths can be driven deterministically without
// a real backend.
//
// Example usage:
//
//	clock := testing.NewManualClock(time.Unix(1700000000, 0))
//	sc := &testing.FakeStatusClient{}
//	// ... wire into the resolver/scheduler, then:
//	clock.Advance(2 * time.Minute) // fires due timers
package testing

import (
	"sort"
	"sync"
	"time"

	"github.com/PaulFidika/licensekit/core"
)

// ManualClock is a core.Clock whose time only moves via Advance.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock   *ManualClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

// NewManualClock starts the clock at the given instant.
func NewManualClock(now time.Time) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registers a one-shot timer firing when Advance crosses d.
func (c *ManualClock) AfterFunc(d time.Duration, fn func()) core.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and fires due timers in order, outside the
// clock lock so callbacks may re-arm timers.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	due := make([]*manualTimer, 0, len(c.timers))
	rest := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(now) {
			t.fired = true
			due = append(due, t)
		} else if !t.stopped && !t.fired {
			rest = append(rest, t)
		}
	}
	c.timers = rest
	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	c.mu.Unlock()
	for _, t := range due {
		t.fn()
	}
}
