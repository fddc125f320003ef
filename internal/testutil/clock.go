package testutil

import (
	"sync"
	"time"
)

// StepClock is a deterministic time source for tests. Each call to Now
// advances by a fixed step from a fixed origin.
//
// Thread-safety: all methods are safe for concurrent use.
type StepClock struct {
	mu     sync.Mutex
	origin time.Time
	step   time.Duration
	n      int64
}

// DefaultOrigin is the instant NewStepClock starts from.
var DefaultOrigin = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// NewStepClock returns a clock starting at DefaultOrigin that advances one
// second per call.
func NewStepClock() *StepClock {
	return &StepClock{origin: DefaultOrigin, step: time.Second}
}

// Now returns origin + n*step and increments n. The first call returns the
// origin itself.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.origin.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Calls returns how many times Now has been called.
func (c *StepClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset rewinds the clock to its origin.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
