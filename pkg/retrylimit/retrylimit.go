// Package retrylimit paces and retries calls against a rate-limited REST API.
// The registration sync uses it around every command push and delete.
//
//	lim := retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5)
//	err := retrylimit.Do(ctx, lim, retrylimit.DefaultPolicy(), func(ctx context.Context) error {
//	    return push(ctx)
//	})
package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// AdaptiveLimiter is a token bucket whose rate grows on success and shrinks
// when the server pushes back.
type AdaptiveLimiter struct {
	mu        sync.Mutex
	limiter   *rate.Limiter
	minLimit  rate.Limit
	maxLimit  rate.Limit
	stepUp    rate.Limit
	stepDown  float64
	cooldown  time.Duration
	lastError time.Time
	now       func() time.Time
}

// NewAdaptiveLimiter creates a limiter starting at initial requests per
// second, bounded by [min, max]. stepUp is added after a quiet success and
// stepDown multiplies the rate after a throttle.
func NewAdaptiveLimiter(initial, min, max, stepUp rate.Limit, stepDown float64) *AdaptiveLimiter {
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	initial = clamp(initial, min, max)
	return &AdaptiveLimiter{
		limiter:  rate.NewLimiter(initial, burstFor(initial)),
		minLimit: min,
		maxLimit: max,
		stepUp:   stepUp,
		stepDown: stepDown,
		cooldown: 10 * time.Second,
		now:      time.Now,
	}
}

// Wait blocks until a token is available or ctx is done.
func (a *AdaptiveLimiter) Wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

// Success raises the rate unless the server throttled us recently.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.now().Sub(a.lastError) > a.cooldown {
		a.set(a.limiter.Limit() + a.stepUp)
	}
}

// Throttled lowers the rate after a 429 or 5xx.
func (a *AdaptiveLimiter) Throttled() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = a.now()
	a.set(rate.Limit(float64(a.limiter.Limit()) * a.stepDown))
}

// Limit returns the current requests per second.
func (a *AdaptiveLimiter) Limit() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return float64(a.limiter.Limit())
}

func (a *AdaptiveLimiter) set(l rate.Limit) {
	l = clamp(l, a.minLimit, a.maxLimit)
	if l != a.limiter.Limit() {
		a.limiter.SetLimit(l)
		a.limiter.SetBurst(burstFor(l))
	}
}

func clamp(l, lo, hi rate.Limit) rate.Limit {
	return min(max(l, lo), hi)
}

func burstFor(l rate.Limit) int { return max(1, int(l)) }

// StatusCoder is implemented by errors that carry an HTTP status code.
type StatusCoder interface {
	StatusCode() int
}

// StatusOf returns the HTTP status carried anywhere in err's chain, or 0.
func StatusOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return 0
}

// FatalError stops retries immediately.
type FatalError struct {
	Err error
}

func (f *FatalError) Error() string { return f.Err.Error() }
func (f *FatalError) Unwrap() error { return f.Err }

// Fatal marks err as not worth retrying.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// Policy configures Do.
type Policy struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	RateLimitDelay time.Duration
	Multiplier     float64
	Jitter         bool
	// Retryable decides whether a non-throttle error is worth another try.
	// Nil retries everything except 4xx responses.
	Retryable func(error) bool
	Logger    zerolog.Logger
}

// DefaultPolicy suits command registration: a handful of attempts with
// exponential backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    5,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       10 * time.Second,
		RateLimitDelay: time.Second,
		Multiplier:     2,
		Jitter:         true,
		Logger:         zerolog.Nop(),
	}
}

// ErrAttemptsExhausted wraps the last error once MaxAttempts is reached.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Do calls fn until it succeeds, returns a FatalError, ctx ends or the
// attempts run out. lim may be nil.
func Do(ctx context.Context, lim *AdaptiveLimiter, p Policy, fn func(context.Context) error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.Retryable == nil {
		p.Retryable = retryable
	}
	delay := p.InitialDelay

	var last error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return err
			}
		}

		err := fn(ctx)
		if err == nil {
			if lim != nil {
				lim.Success()
			}
			if attempt > 1 {
				p.Logger.Debug().Int("attempt", attempt).Msg("Request succeeded after retry")
			}
			return nil
		}
		last = err

		var fatal *FatalError
		if errors.As(err, &fatal) {
			return fatal.Err
		}

		status := StatusOf(err)
		wait := delay
		switch {
		case status == http.StatusTooManyRequests:
			if lim != nil {
				lim.Throttled()
			}
			wait = p.RateLimitDelay
			p.Logger.Warn().Int("attempt", attempt).Float64("rps", limitOf(lim)).Msg("Rate limited")
		case status >= 500:
			if lim != nil {
				lim.Throttled()
			}
			p.Logger.Warn().Err(err).Int("attempt", attempt).Dur("sleep", wait).Msg("Server error")
		case !p.Retryable(err):
			return err
		default:
			p.Logger.Warn().Err(err).Int("attempt", attempt).Dur("sleep", wait).Msg("Request failed")
		}
		if attempt == p.MaxAttempts {
			break
		}

		if p.Jitter {
			wait = jitter(wait)
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}

		if status != http.StatusTooManyRequests {
			delay = min(time.Duration(float64(delay)*p.Multiplier), p.MaxDelay)
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, p.MaxAttempts, last)
}

func retryable(err error) bool {
	status := StatusOf(err)
	return status == 0 || status >= 500
}

func limitOf(lim *AdaptiveLimiter) float64 {
	if lim == nil {
		return 0
	}
	return lim.Limit()
}

// jitter adds up to 25% to d.
func jitter(d time.Duration) time.Duration {
	if d < 4 {
		return d
	}
	return d + rand.N(d/4)
}
