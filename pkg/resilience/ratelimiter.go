package resilience

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("rate limited")

// LimiterOpts configures the token bucket.
type LimiterOpts struct {
	// PerSecond is the sustained request rate.
	PerSecond float64
	// Burst is the bucket capacity.
	Burst int
}

// Limiter wraps a token bucket limiter for outbound provider calls.
type Limiter struct {
	bucket *rate.Limiter
}

// NewLimiter creates a token bucket limiter.
func NewLimiter(opts LimiterOpts) *Limiter {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.PerSecond <= 0 {
		opts.PerSecond = 1
	}
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(opts.PerSecond), opts.Burst)}
}

// Allow reports whether a request may proceed right now.
func (l *Limiter) Allow() bool { return l.bucket.Allow() }

// Wait blocks until a token is available or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context) error { return l.bucket.Wait(ctx) }

// Call executes f if a token is available, otherwise returns ErrRateLimited.
func (l *Limiter) Call(ctx context.Context, f func(context.Context) error) error {
	if !l.Allow() {
		return ErrRateLimited
	}
	return f(ctx)
}

// CallWait waits for a token then executes f.
func (l *Limiter) CallWait(ctx context.Context, f func(context.Context) error) error {
	if err := l.Wait(ctx); err != nil {
		return err
	}
	return f(ctx)
}
