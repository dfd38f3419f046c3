// Package ratelimit implements per-client fixed-window rate limiting with a
// block period on exhaustion. State lives in process memory only, so the
// limiter is correct for a single-process deployment and resets on restart.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// UnknownClientKey is charged when no client address is resolvable. All
// address-less callers share this one bucket.
const UnknownClientKey = "unknown"

// Policy describes one fixed-window budget.
type Policy struct {
	Name   string
	Budget int
	Window time.Duration
	Block  time.Duration
}

// Result reports the outcome of a Consume call.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// ResetMillis returns RetryAfter in whole milliseconds, rounded up so a
// caller never retries early.
func (r Result) ResetMillis() int64 {
	return int64((r.RetryAfter + time.Millisecond - 1) / time.Millisecond)
}

// Error is returned by pipelines when a policy denies a request. It carries
// enough context for the HTTP layer to emit Retry-After and X-RateLimit-*
// headers.
type Error struct {
	Policy     string
	Budget     int
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry in %s", e.Policy, e.RetryAfter.Round(time.Second))
}

type bucket struct {
	count        int
	windowStart  time.Time
	blockedUntil time.Time
	lastSeen     time.Time
}

// Limiter tracks one policy across client keys. The mutex makes the
// check-and-increment sequence atomic under real parallelism.
type Limiter struct {
	mu      sync.Mutex
	policy  Policy
	buckets map[string]*bucket
	now     func() time.Time
}

// NewLimiter constructs a limiter for the given policy.
func NewLimiter(policy Policy) *Limiter {
	return &Limiter{
		policy:  policy,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// WithClock replaces the limiter's clock. Test use only.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Policy returns the policy this limiter enforces.
func (l *Limiter) Policy() Policy {
	return l.policy
}

// Consume charges one request against key. Blocked clients are denied until
// the block elapses regardless of their count; a live window is incremented
// and exhausts into a block; an expired window restarts at count 1.
func (l *Limiter) Consume(key string) Result {
	if key == "" {
		key = UnknownClientKey
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{}
		l.buckets[key] = b
	}
	b.lastSeen = now

	if now.Before(b.blockedUntil) {
		return Result{Allowed: false, Remaining: 0, RetryAfter: b.blockedUntil.Sub(now)}
	}

	windowEnd := b.windowStart.Add(l.policy.Window)
	if b.windowStart.IsZero() || !now.Before(windowEnd) {
		b.count = 1
		b.windowStart = now
		b.blockedUntil = time.Time{}
		l.sweepLocked(now)
		return Result{Allowed: true, Remaining: l.policy.Budget - 1, RetryAfter: l.policy.Window}
	}

	b.count++
	if b.count > l.policy.Budget {
		b.blockedUntil = now.Add(l.policy.Block)
		return Result{Allowed: false, Remaining: 0, RetryAfter: l.policy.Block}
	}
	return Result{Allowed: true, Remaining: l.policy.Budget - b.count, RetryAfter: windowEnd.Sub(now)}
}

// Len reports the number of tracked client keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Reset clears all state. Test use only.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets = make(map[string]*bucket)
}

// sweepLocked drops buckets idle long past any window or block they could
// still influence, bounding map growth under high client-key cardinality.
func (l *Limiter) sweepLocked(now time.Time) {
	retention := 10 * l.policy.Window
	if l.policy.Block > retention {
		retention = l.policy.Block + l.policy.Window
	}
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > retention && now.After(b.blockedUntil) {
			delete(l.buckets, key)
		}
	}
}

// Set groups the three service policies.
type Set struct {
	Summarize *Limiter
	Email     *Limiter
	General   *Limiter
}
