package resilience

import (
	"sync"
	"time"
)

// BreakerState is the circuit breaker state for one target
type BreakerState string

const (
	StateClosed   BreakerState = "CLOSED"
	StateOpen     BreakerState = "OPEN"
	StateHalfOpen BreakerState = "HALF_OPEN"
)

// CircuitBreaker stops calling a failing target for a cooldown period.
// One breaker exists per resilience-wrapped target; all transitions happen
// under the mutex.
type CircuitBreaker struct {
	target           string
	failureThreshold int
	monitoringWindow time.Duration
	recoveryTimeout  time.Duration

	mu            sync.Mutex
	state         BreakerState
	failures      int
	windowStart   time.Time
	lastFailureAt time.Time
	openedAt      time.Time
	trialInFlight bool

	now func() time.Time // injectable for tests
}

// NewCircuitBreaker creates a closed breaker for a target
func NewCircuitBreaker(target string, failureThreshold int, monitoringWindow, recoveryTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	return &CircuitBreaker{
		target:           target,
		failureThreshold: failureThreshold,
		monitoringWindow: monitoringWindow,
		recoveryTimeout:  recoveryTimeout,
		state:            StateClosed,
		now:              time.Now,
	}
}

// Allow reports whether a call may proceed. In OPEN it fails fast with
// CircuitOpenError until the recovery timeout elapses, then admits exactly
// one HALF_OPEN trial.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		elapsed := b.now().Sub(b.openedAt)
		if elapsed < b.recoveryTimeout {
			return &CircuitOpenError{Target: b.target, RetryIn: b.recoveryTimeout - elapsed}
		}
		b.state = StateHalfOpen
		b.trialInFlight = true
		return nil
	case StateHalfOpen:
		if b.trialInFlight {
			return &CircuitOpenError{Target: b.target, RetryIn: b.recoveryTimeout}
		}
		b.trialInFlight = true
		return nil
	default:
		return nil
	}
}

// RecordSuccess closes the breaker after a successful HALF_OPEN trial
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.state = StateClosed
		b.failures = 0
		b.trialInFlight = false
	}
}

// RecordFailure advances the failure counter and opens the breaker when the
// threshold is reached within the monitoring window. A failure after the
// window elapsed resets the counter to 1, not 0, so the fresh failure still
// counts toward the new window.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	if b.state == StateHalfOpen {
		b.state = StateOpen
		b.openedAt = now
		b.lastFailureAt = now
		b.trialInFlight = false
		return
	}

	if b.windowStart.IsZero() || now.Sub(b.windowStart) > b.monitoringWindow {
		b.failures = 1
		b.windowStart = now
	} else {
		b.failures++
	}
	b.lastFailureAt = now

	if b.state == StateClosed && b.failures >= b.failureThreshold {
		b.state = StateOpen
		b.openedAt = now
	}
}

// State returns the current state
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the current failure count in the monitoring window
func (b *CircuitBreaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
