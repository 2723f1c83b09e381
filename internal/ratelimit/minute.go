package ratelimit

import (
	"sync"
	"time"
)

// Window is the length of one rate-limit bucket.
const Window = time.Minute

// Decision is the outcome of counting one request.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration // time until the next bucket starts
}

// MinuteCounter is a fixed-window request budget. Buckets start on minute
// boundaries; every request counts against the current bucket whether or
// not it is allowed. A limit of zero or less disables limiting.
type MinuteCounter struct {
	limit int
	now   func() time.Time

	mu     sync.Mutex
	bucket int64
	counts map[string]int
}

// NewMinuteCounter creates a counter allowing limit requests per key per minute.
func NewMinuteCounter(limit int) *MinuteCounter {
	return &MinuteCounter{
		limit:  limit,
		now:    time.Now,
		counts: make(map[string]int),
	}
}

// WithClock replaces the time source. Intended for tests.
func (c *MinuteCounter) WithClock(now func() time.Time) *MinuteCounter {
	c.now = now
	return c
}

// Limit returns the configured per-minute limit.
func (c *MinuteCounter) Limit() int {
	if c == nil {
		return 0
	}
	return c.limit
}

// Hit counts one request for key and reports whether it fits the budget.
// A nil counter allows everything.
func (c *MinuteCounter) Hit(key string) Decision {
	if c == nil || c.limit <= 0 {
		return Decision{Allowed: true, Limit: c.Limit()}
	}

	now := c.now()
	bucket := now.Unix() / int64(Window/time.Second)

	c.mu.Lock()
	defer c.mu.Unlock()

	if bucket != c.bucket {
		// new minute: drop every key's count from the previous bucket
		c.bucket = bucket
		clear(c.counts)
	}

	c.counts[key]++
	count := c.counts[key]

	remaining := c.limit - count
	if remaining < 0 {
		remaining = 0
	}

	next := time.Unix((bucket+1)*int64(Window/time.Second), 0)
	return Decision{
		Allowed:    count <= c.limit,
		Limit:      c.limit,
		Remaining:  remaining,
		RetryAfter: next.Sub(now),
	}
}
