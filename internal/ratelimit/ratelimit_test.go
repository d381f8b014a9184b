package ratelimit

import (
	"testing"
	"time"
)

func newTestLimiter(now *time.Time) *Limiter {
	l := New(DefaultWindow)
	l.now = func() time.Time { return *now }
	return l
}

func TestAnonymousLimitIsFive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	for i := 0; i < 5; i++ {
		d := l.Admit("10.0.0.1", "upload", "anonymous")
		if !d.Allowed {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
	}
	d := l.Admit("10.0.0.1", "upload", "anonymous")
	if d.Allowed {
		t.Fatal("sixth anonymous request allowed, want denied")
	}
	if d.RetryAfter < 1 || d.RetryAfter > int(DefaultWindow.Seconds()) {
		t.Fatalf("RetryAfter = %d, want within (0, %d]", d.RetryAfter, int(DefaultWindow.Seconds()))
	}
}

func TestWindowResetsAfterFifteenMinutes(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	for i := 0; i < 5; i++ {
		l.Admit("10.0.0.1", "upload", "anonymous")
	}
	if d := l.Admit("10.0.0.1", "upload", "anonymous"); d.Allowed {
		t.Fatal("expected denial at limit")
	}

	now = now.Add(DefaultWindow)
	if d := l.Admit("10.0.0.1", "upload", "anonymous"); !d.Allowed {
		t.Fatal("expected fresh window after 15 minutes")
	}
}

func TestBucketsAreIndependent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	for i := 0; i < 5; i++ {
		l.Admit("10.0.0.1", "upload", "anonymous")
	}
	if d := l.Admit("10.0.0.1", "upload", "anonymous"); d.Allowed {
		t.Fatal("upload bucket should be exhausted")
	}
	if d := l.Admit("10.0.0.1", "history", "anonymous"); !d.Allowed {
		t.Fatal("history bucket should be untouched")
	}
	if d := l.Admit("10.0.0.2", "upload", "anonymous"); !d.Allowed {
		t.Fatal("another caller should be untouched")
	}
}

func TestDeniedRequestDoesNotConsume(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	for i := 0; i < 5; i++ {
		l.Admit("10.0.0.1", "upload", "anonymous")
	}
	// Hammering while throttled must not extend the lockout.
	for i := 0; i < 20; i++ {
		l.Admit("10.0.0.1", "upload", "anonymous")
	}
	now = now.Add(DefaultWindow)
	if d := l.Admit("10.0.0.1", "upload", "anonymous"); !d.Allowed {
		t.Fatal("denied requests extended the window")
	}
}

func TestRoleLimits(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{"anonymous", 5},
		{"default", 10},
		{"student", 20},
		{"premium", 100},
		{"counselor", 200},
		{"admin", 1000},
		{"unknown-role", 10},
		{"", 10},
	}
	for _, tt := range tests {
		if got := LimitForRole(tt.role); got != tt.want {
			t.Fatalf("LimitForRole(%q) = %d, want %d", tt.role, got, tt.want)
		}
	}
}

func TestSweepDropsExpiredWindows(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := newTestLimiter(&now)

	l.Admit("a", "upload", "anonymous")
	l.Admit("b", "upload", "anonymous")
	now = now.Add(DefaultWindow + time.Second)
	l.Admit("c", "upload", "anonymous")

	if removed := l.Sweep(); removed != 2 {
		t.Fatalf("Sweep() removed %d, want 2", removed)
	}
}
