package testutil

import "sync"

// TickingClock is a scripted wall clock: each reading returns the
// current value and advances it by a fixed step. A step of zero freezes
// time, which is how tests manufacture same-timestamp conflicts.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex.
type TickingClock struct {
	mu   sync.Mutex
	now  int64
	step int64
}

// NewTickingClock creates a clock whose first reading is start, with
// subsequent readings advancing by step milliseconds.
func NewTickingClock(start, step int64) *TickingClock {
	return &TickingClock{now: start, step: step}
}

// NowMillis returns the current scripted time and advances the clock.
func (c *TickingClock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.now
	c.now += c.step
	return v
}

// Set repositions the clock; the next reading returns now.
func (c *TickingClock) Set(now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
