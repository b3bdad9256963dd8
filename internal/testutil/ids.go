package testutil

import (
	"fmt"
	"sync"
	"time"
)

// FixedRunIDGenerator returns predetermined run IDs for store tests.
//
// IDs are "<prefix>-0001", "<prefix>-0002", ... so tests can assert exact
// values. Thread-safety: safe for concurrent use via internal mutex.
type FixedRunIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewFixedRunIDGenerator creates a generator. An empty prefix uses "test-run".
func NewFixedRunIDGenerator(prefix string) *FixedRunIDGenerator {
	if prefix == "" {
		prefix = "test-run"
	}
	return &FixedRunIDGenerator{prefix: prefix}
}

// Generate returns the next run ID.
func (g *FixedRunIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// DeterministicClock returns a fixed start time advanced by one second per
// call, for reproducible created_at columns.
type DeterministicClock struct {
	mu   sync.Mutex
	next time.Time
}

// NewDeterministicClock starts at 2024-01-01T00:00:00Z.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{next: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current fixed time and advances the clock.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(time.Second)
	return now
}
