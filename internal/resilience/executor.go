package resilience

import (
	"context"
	"sync"

	"github.com/tokenlens/tokenlens/internal/model"
)

// Operation is an outbound call wrapped by the executor
type Operation func(ctx context.Context) (any, error)

// Executor composes throttle, circuit breaker, and retry around every
// outbound call. One executor is constructed per process and shared by all
// collaborators so breaker and throttle accounting stays global.
type Executor struct {
	cfg model.ResilienceConfig

	mu        sync.Mutex
	breakers  map[string]*CircuitBreaker
	throttles map[string]*Throttle
}

// NewExecutor creates an executor from the resilience configuration
func NewExecutor(cfg model.ResilienceConfig) *Executor {
	return &Executor{
		cfg:       cfg,
		breakers:  make(map[string]*CircuitBreaker),
		throttles: make(map[string]*Throttle),
	}
}

// Call runs op against target: throttle first, then breaker admission, then
// the operation, with the retry policy around each attempt. It fails with
// CircuitOpenError, ThrottleTimeoutError, or RetryExhaustedError wrapping
// the operation's last error.
func (e *Executor) Call(ctx context.Context, target string, op Operation) (any, error) {
	breaker := e.breaker(target)
	throttle := e.throttle(target)

	var result any
	err := Retry(ctx, target, e.policy(), func(ctx context.Context) error {
		if err := throttle.Acquire(ctx); err != nil {
			return err
		}
		defer throttle.Release()

		if err := breaker.Allow(); err != nil {
			return err
		}

		out, err := op(ctx)
		if err != nil {
			breaker.RecordFailure()
			return err
		}
		breaker.RecordSuccess()
		result = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BreakerState exposes the breaker state for a target (for diagnostics)
func (e *Executor) BreakerState(target string) BreakerState {
	return e.breaker(target).State()
}

func (e *Executor) policy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   e.cfg.MaxRetries,
		BaseDelay:    e.cfg.BaseDelay,
		MaxDelay:     e.cfg.MaxDelay,
		Multiplier:   e.cfg.BackoffMultiplier,
		OverloadMult: e.cfg.OverloadMultiplier,
		OverloadMax:  e.cfg.OverloadMaxDelay,
	}
}

func (e *Executor) breaker(target string) *CircuitBreaker {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.breakers[target]
	if !ok {
		b = NewCircuitBreaker(target, e.cfg.FailureThreshold, e.cfg.MonitoringWindow, e.cfg.RecoveryTimeout)
		e.breakers[target] = b
	}
	return b
}

func (e *Executor) throttle(target string) *Throttle {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.throttles[target]
	if !ok {
		t = NewThrottle(target, e.cfg.MaxRequestsPerMinute, e.cfg.MaxConcurrentRequests, e.cfg.MinRequestInterval, e.cfg.AcquireTimeout)
		e.throttles[target] = t
	}
	return t
}
