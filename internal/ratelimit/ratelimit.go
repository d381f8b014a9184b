package ratelimit

import (
	"sync"
	"time"
)

// DefaultWindow is the fixed counting window.
const DefaultWindow = 15 * time.Minute

// Per-window request limits by caller role. Unknown roles fall back to
// the authenticated default.
var roleLimits = map[string]int{
	"anonymous": 5,
	"default":   10,
	"student":   20,
	"premium":   100,
	"counselor": 200,
	"admin":     1000,
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter int // seconds until the window resets; zero when allowed
}

type windowState struct {
	count   int
	started time.Time
}

// Limiter counts requests per (caller key, bucket) pair within fixed
// windows. Counters live in memory; a restart clears them, which only
// ever errs in the caller's favor.
type Limiter struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]*windowState
	now     func() time.Time
}

func New(window time.Duration) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		window:  window,
		entries: make(map[string]*windowState),
		now:     time.Now,
	}
}

// LimitForRole resolves the per-window cap for a role.
func LimitForRole(role string) int {
	if limit, ok := roleLimits[role]; ok {
		return limit
	}
	return roleLimits["default"]
}

// Admit counts one request against the caller's window for the given
// bucket and reports whether it fits. The slot is consumed only when the
// request is allowed, so a throttled caller is not pushed further back.
func (l *Limiter) Admit(key, bucket, role string) Decision {
	limit := LimitForRole(role)
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	entryKey := key + "|" + bucket
	st, ok := l.entries[entryKey]
	if !ok || now.Sub(st.started) >= l.window {
		st = &windowState{started: now}
		l.entries[entryKey] = st
	}

	if st.count >= limit {
		retry := int(l.window.Seconds() - now.Sub(st.started).Seconds())
		if retry < 1 {
			retry = 1
		}
		return Decision{Allowed: false, Limit: limit, Remaining: 0, RetryAfter: retry}
	}

	st.count++
	return Decision{Allowed: true, Limit: limit, Remaining: limit - st.count}
}

// Sweep drops expired windows. Called periodically so long-running
// processes don't accumulate one entry per caller forever.
func (l *Limiter) Sweep() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, st := range l.entries {
		if now.Sub(st.started) >= l.window {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}
