package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type recordingObserver struct{ outcomes []string }

func (o *recordingObserver) RateLimitDecision(outcome string) { o.outcomes = append(o.outcomes, outcome) }

func newTestLimiter(t *testing.T, clock *fakeClock, opts ...Option) (*SlidingWindowLimiter, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	l := NewSlidingWindowLimiter(Config{Addr: srv.Addr(), Prefix: "test:ratelimit"}, opts...)
	t.Cleanup(func() { _ = l.Close() })
	return l, srv
}

func TestSlidingWindowAdmitsThreeThenDenies(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	l, _ := newTestLimiter(t, clock)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d := l.Check(ctx, "10.0.0.1")
		if !d.Allowed {
			t.Fatalf("request %d should pass", i)
		}
		if d.Remaining != 3-i {
			t.Fatalf("request %d remaining = %d", i, d.Remaining)
		}
		clock.Advance(time.Second)
	}
	d := l.Check(ctx, "10.0.0.1")
	if d.Allowed {
		t.Fatalf("fourth request should be denied")
	}
	if d.Remaining != 0 || d.Limit != 3 {
		t.Fatalf("unexpected decision: %+v", d)
	}
	wantReset := time.Date(2025, 1, 1, 12, 5, 0, 0, time.UTC)
	if !d.Reset.Equal(wantReset) {
		t.Fatalf("reset = %v, want %v", d.Reset, wantReset)
	}
	if got := d.RetryAfter(clock.Now()); got != 5*time.Minute-2*time.Second {
		t.Fatalf("retry after = %v", got)
	}
}

func TestSlidingWindowKeysAreIndependent(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	l, _ := newTestLimiter(t, clock)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		l.Check(ctx, "a")
	}
	if !l.Check(ctx, "b").Allowed {
		t.Fatalf("other key must not share quota")
	}
}

func TestSlidingWindowAllowsAfterWindowElapses(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	l, _ := newTestLimiter(t, clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		l.Check(ctx, "ip")
	}
	if l.Check(ctx, "ip").Allowed {
		t.Fatalf("expected denial inside window")
	}
	clock.Advance(DefaultWindow + time.Millisecond)
	if !l.Check(ctx, "ip").Allowed {
		t.Fatalf("expected request to pass after window")
	}
}

func TestSlidingWindowDenialsDoNotConsumeQuota(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	l, _ := newTestLimiter(t, clock)
	ctx := context.Background()

	l.Check(ctx, "ip")
	clock.Advance(2 * time.Minute)
	l.Check(ctx, "ip")
	l.Check(ctx, "ip")
	for i := 0; i < 5; i++ {
		l.Check(ctx, "ip")
	}
	// The first request leaves the window; only it frees a slot.
	clock.Advance(3*time.Minute + time.Millisecond)
	if !l.Check(ctx, "ip").Allowed {
		t.Fatalf("slot of the oldest request should be free")
	}
	if l.Check(ctx, "ip").Allowed {
		t.Fatalf("later requests are still inside the window")
	}
}

func TestSlidingWindowFailsOpenWhenRedisDown(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	obs := &recordingObserver{}
	l, srv := newTestLimiter(t, clock, WithObserver(obs))
	srv.Close()

	for i := 0; i < 5; i++ {
		if !l.Check(context.Background(), "ip").Allowed {
			t.Fatalf("limiter must fail open")
		}
	}
	if len(obs.outcomes) != 5 || obs.outcomes[0] != OutcomeFailOpen {
		t.Fatalf("unexpected outcomes: %v", obs.outcomes)
	}
}

func TestSlidingWindowNotConfiguredAllows(t *testing.T) {
	l := NewSlidingWindowLimiter(Config{})
	if l.Configured() {
		t.Fatalf("limiter without addr must not be configured")
	}
	for i := 0; i < 10; i++ {
		if !l.Check(context.Background(), "ip").Allowed {
			t.Fatalf("unconfigured limiter must allow")
		}
	}
	var nilLimiter *SlidingWindowLimiter
	if !nilLimiter.Check(context.Background(), "ip").Allowed {
		t.Fatalf("nil limiter must allow")
	}
}
