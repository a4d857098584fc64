// Package timeutil provides a testable abstraction over the monotonic clock
// used to pace replay.
package timeutil

import (
	"sync"
	"time"
)

// Clock provides an abstraction over time operations for testability.
//
// Implementations used for pacing must be monotonic and resolve
// sub-millisecond differences; replay busy-waits on Since and a coarse clock
// turns into visible jitter on the wire.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the duration since t.
	Since(t time.Time) time.Duration
}

// RealClock implements Clock using the standard time package. time.Now
// carries a monotonic reading with nanosecond resolution on supported
// platforms, so Since is immune to wall clock steps.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t.
func (RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// MockClock is a manually controlled clock for testing.
//
// When a step is configured every call to Now advances the clock by that
// step first, which lets busy-wait loops terminate without real time passing.
type MockClock struct {
	mu    sync.Mutex
	now   time.Time
	step  time.Duration
	calls int
}

// NewMockClock creates a new MockClock set to the given time.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// NewSteppingMockClock creates a MockClock that advances by step on every Now.
func NewSteppingMockClock(t time.Time, step time.Duration) *MockClock {
	return &MockClock{now: t, step: step}
}

// Now returns the mocked current time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.now = c.now.Add(c.step)
	return c.now
}

// Since returns the duration since t.
func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Set sets the mock clock to a specific time.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the mock clock forward by the given duration.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Peek returns the current mocked time without stepping the clock.
func (c *MockClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Calls returns how many times Now (directly or through Since) was called.
func (c *MockClock) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
