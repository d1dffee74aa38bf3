package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBreaker_TripsAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 3, Cooldown: time.Minute})
	boom := errors.New("boom")
	fail := func(context.Context) error { return boom }

	for i := 0; i < 3; i++ {
		if err := b.Call(context.Background(), fail); !errors.Is(err, boom) {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if b.State() != StateOpen {
		t.Fatalf("state = %v, want open", b.State())
	}
	if err := b.Call(context.Background(), fail); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open breaker should reject, got %v", err)
	}
}

func TestBreaker_HalfOpenProbeRecovers(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Cooldown: time.Minute})
	current := time.Now()
	b.now = func() time.Time { return current }

	_ = b.Call(context.Background(), func(context.Context) error { return errors.New("x") })
	if b.State() != StateOpen {
		t.Fatal("expected open")
	}

	current = current.Add(2 * time.Minute)
	if b.State() != StateHalfOpen {
		t.Fatal("expected half-open after cooldown")
	}
	if err := b.Call(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("probe call failed: %v", err)
	}
	if b.State() != StateClosed {
		t.Errorf("successful probe should close the breaker, state = %v", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(BreakerOpts{FailThreshold: 1, Cooldown: time.Minute})
	current := time.Now()
	b.now = func() time.Time { return current }

	_ = b.Call(context.Background(), func(context.Context) error { return errors.New("x") })
	current = current.Add(2 * time.Minute)
	_ = b.Call(context.Background(), func(context.Context) error { return errors.New("still down") })
	if b.State() != StateOpen {
		t.Errorf("failed probe should reopen, state = %v", b.State())
	}
}

func TestLimiter_AllowAndReject(t *testing.T) {
	l := NewLimiter(LimiterOpts{PerSecond: 0.001, Burst: 2})
	if !l.Allow() || !l.Allow() {
		t.Fatal("burst tokens should be available")
	}
	if l.Allow() {
		t.Error("bucket should be drained")
	}
	err := l.Call(context.Background(), func(context.Context) error { return nil })
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestLimiter_CallWaitHonorsContext(t *testing.T) {
	l := NewLimiter(LimiterOpts{PerSecond: 0.001, Burst: 1})
	l.Allow() // drain

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.CallWait(ctx, func(context.Context) error { return nil }); err == nil {
		t.Error("expected context error while waiting for a token")
	}
}
