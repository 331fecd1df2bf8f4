package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func noSleep(delays *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestRetry_SucceedsAfterTransientFailures(t *testing.T) {
	var delays []time.Duration
	policy := RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
		Sleep:      noSleep(&delays),
	}

	calls := 0
	err := Retry(context.Background(), "api", policy, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}

	// Exponential: base*2^0, base*2^1
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("expected %d delays, got %d", len(want), len(delays))
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d: expected %v, got %v", i, want[i], delays[i])
		}
	}
}

func TestRetry_ExhaustedCarriesAttemptsAndClass(t *testing.T) {
	var delays []time.Duration
	policy := RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, Multiplier: 2, Sleep: noSleep(&delays)}

	err := Retry(context.Background(), "api", policy, func(ctx context.Context) error {
		return errors.New("boom")
	})

	var exhausted *RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RetryExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", exhausted.Attempts)
	}
	if exhausted.Class != ClassTransient {
		t.Errorf("expected transient class, got %s", exhausted.Class)
	}
}

func TestRetry_OverloadUsesConservativeBackoff(t *testing.T) {
	var delays []time.Duration
	policy := RetryPolicy{
		MaxRetries:   2,
		BaseDelay:    time.Second,
		MaxDelay:     4 * time.Second,
		Multiplier:   2.0,
		OverloadMult: 3.0,
		OverloadMax:  60 * time.Second,
		Sleep:        noSleep(&delays),
	}

	err := Retry(context.Background(), "api", policy, func(ctx context.Context) error {
		return &OverloadError{Err: errors.New("rate limited")}
	})

	var exhausted *RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RetryExhaustedError, got %v", err)
	}
	if exhausted.Class != ClassOverload {
		t.Errorf("expected overload class, got %s", exhausted.Class)
	}

	// Multiplier 3: 1s*3^0, 1s*3^1
	want := []time.Duration{time.Second, 3 * time.Second}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d: expected %v, got %v", i, want[i], delays[i])
		}
	}
}

func TestRetry_DelayCappedAtMax(t *testing.T) {
	policy := RetryPolicy{BaseDelay: time.Second, MaxDelay: 5 * time.Second, Multiplier: 10}
	if d := policy.Delay(3, false); d != 5*time.Second {
		t.Errorf("expected cap at 5s, got %v", d)
	}
}

func TestRetry_CircuitOpenNotRetried(t *testing.T) {
	var delays []time.Duration
	policy := RetryPolicy{MaxRetries: 5, BaseDelay: time.Millisecond, Multiplier: 2, Sleep: noSleep(&delays)}

	calls := 0
	err := Retry(context.Background(), "api", policy, func(ctx context.Context) error {
		calls++
		return &CircuitOpenError{Target: "api", RetryIn: time.Second}
	})

	var open *CircuitOpenError
	if !errors.As(err, &open) {
		t.Fatalf("expected CircuitOpenError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call (no retry through open breaker), got %d", calls)
	}
}

type statusError struct{ code int }

func (e *statusError) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e *statusError) StatusCode() int { return e.code }

func TestIsOverload(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&OverloadError{Err: errors.New("x")}, true},
		{&statusError{429}, true},
		{&statusError{529}, true},
		{&statusError{500}, false},
		{errors.New("plain"), false},
		{fmt.Errorf("wrapped: %w", &statusError{429}), true},
	}
	for _, c := range cases {
		if got := IsOverload(c.err); got != c.want {
			t.Errorf("IsOverload(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}
