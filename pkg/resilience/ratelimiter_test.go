package resilience

import (
	"context"
	"testing"
	"time"
)

func TestLimiterAllowConsumesBurst(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 1, Burst: 2})
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	if !l.Allow() || !l.Allow() {
		t.Fatal("burst tokens should be available")
	}
	if l.Allow() {
		t.Fatal("bucket should be empty")
	}
}

func TestLimiterRefills(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 10, Burst: 1})
	now := time.Unix(1000, 0)
	l.now = func() time.Time { return now }

	if !l.Allow() {
		t.Fatal("initial token missing")
	}
	if l.Allow() {
		t.Fatal("bucket should be empty")
	}

	now = now.Add(200 * time.Millisecond) // 2 tokens at rate 10, capped at burst 1
	if !l.Allow() {
		t.Fatal("token should have refilled")
	}
	if l.Allow() {
		t.Fatal("refill must cap at burst")
	}
}

func TestLimiterWaitHonorsContext(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 0.001, Burst: 1})
	l.Allow() // drain

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Fatal("expected context deadline error")
	}
}

func TestLimiterWaitZeroRateFails(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 0, Burst: 1})
	l.Allow() // drain

	done := make(chan error, 1)
	go func() { done <- l.Wait(context.Background()) }()
	select {
	case err := <-done:
		if err != ErrRateLimited {
			t.Fatalf("got %v, want ErrRateLimited", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait must not spin on a zero-rate bucket")
	}
}

func TestLimiterWaitReturnsWhenTokenArrives(t *testing.T) {
	l := NewLimiter(LimiterOpts{Rate: 100, Burst: 1})
	l.Allow() // drain

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
}
