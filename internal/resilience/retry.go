package resilience

import (
	"context"
	"errors"
	"math"
	"time"
)

// RetryPolicy is the reusable backoff policy shared by all call sites
type RetryPolicy struct {
	MaxRetries   int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	OverloadMult float64
	OverloadMax  time.Duration
	Sleep        func(ctx context.Context, d time.Duration) error // injectable
}

// Delay computes the backoff before the given attempt (1-based). Overload
// errors use the conservative multiplier and cap.
func (p RetryPolicy) Delay(attempt int, overload bool) time.Duration {
	mult := p.Multiplier
	max := p.MaxDelay
	if overload {
		if p.OverloadMult > 0 {
			mult = p.OverloadMult
		}
		if p.OverloadMax > 0 {
			max = p.OverloadMax
		}
	}
	if mult <= 0 {
		mult = 2.0
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(mult, float64(attempt-1)))
	if max > 0 && d > max {
		d = max
	}
	return d
}

// Retry runs op up to MaxRetries+1 times with exponential backoff. A
// CircuitOpenError stops immediately: the wrapper never retries through an
// open breaker. The final failure is a RetryExhaustedError tagged with the
// attempt count and error class.
func Retry(ctx context.Context, target string, policy RetryPolicy, op func(ctx context.Context) error) error {
	sleep := policy.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	attempts := policy.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	made := 0
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx)
		made = attempt
		if err == nil {
			return nil
		}
		lastErr = err

		var open *CircuitOpenError
		if errors.As(err, &open) {
			return err
		}
		if ctx.Err() != nil || attempt == attempts {
			break
		}

		if err := sleep(ctx, policy.Delay(attempt, IsOverload(lastErr))); err != nil {
			break
		}
	}

	return &RetryExhaustedError{Target: target, Attempts: made, Class: Classify(lastErr), Err: lastErr}
}
