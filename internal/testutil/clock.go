package testutil

import (
	"sync"
	"time"
)

// FixedClock is a manually advanced wall clock for tests.
//
// Components that stamp files with the current time (backup names, save
// metadata) take a func() time.Time; pass clock.Now to make them
// deterministic.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock frozen at start.
//
// A zero start defaults to 2024-01-15 09:30:00 UTC.
func NewFixedClock(start time.Time) *FixedClock {
	if start.IsZero() {
		start = time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)
	}
	return &FixedClock{now: start}
}

// Now returns the current frozen time.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
