package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/veriloc/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// Sleep returns immediately after advancing the clock.
type MockClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
	Sleeps      int
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CurrentTime
}

// Sleep advances the clock by d without blocking
func (c *MockClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentTime = c.CurrentTime.Add(d)
	c.Sleeps++
	return nil
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentTime = c.CurrentTime.Add(d)
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentTime = t
}

// SleepCount returns how many times Sleep was called
func (c *MockClock) SleepCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Sleeps
}
