package resilience

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces per-target request ceilings: a fixed 60-second request
// window, a cap on concurrently in-flight calls, and a minimum spacing
// between call starts.
type Throttle struct {
	target         string
	maxPerWindow   int
	window         time.Duration
	acquireTimeout time.Duration

	mu          sync.Mutex
	windowStart time.Time
	count       int

	slots   chan struct{} // concurrency semaphore, FIFO by channel order
	spacing *rate.Limiter // min inter-request interval

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewThrottle creates a throttle for a target
func NewThrottle(target string, maxPerMinute, maxConcurrent int, minInterval, acquireTimeout time.Duration) *Throttle {
	if maxPerMinute <= 0 {
		maxPerMinute = 30
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	var spacing *rate.Limiter
	if minInterval > 0 {
		spacing = rate.NewLimiter(rate.Every(minInterval), 1)
	}
	return &Throttle{
		target:         target,
		maxPerWindow:   maxPerMinute,
		window:         time.Minute,
		acquireTimeout: acquireTimeout,
		slots:          make(chan struct{}, maxConcurrent),
		spacing:        spacing,
		now:            time.Now,
		sleep:          sleepCtx,
	}
}

// Acquire blocks until the call may start, then charges the request window
// and takes a concurrency slot. Release must be called when the call ends.
func (t *Throttle) Acquire(ctx context.Context) error {
	if err := t.waitWindow(ctx); err != nil {
		return err
	}

	timeout := t.acquireTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case t.slots <- struct{}{}:
	case <-timer.C:
		return &ThrottleTimeoutError{Target: t.target}
	case <-ctx.Done():
		return ctx.Err()
	}

	if t.spacing != nil {
		if err := t.spacing.Wait(ctx); err != nil {
			<-t.slots
			return err
		}
	}
	return nil
}

// Release frees the concurrency slot taken by Acquire
func (t *Throttle) Release() {
	select {
	case <-t.slots:
	default:
	}
}

// waitWindow charges one request against the fixed 60s window, blocking
// until the window resets when the ceiling has been reached.
func (t *Throttle) waitWindow(ctx context.Context) error {
	for {
		t.mu.Lock()
		now := t.now()
		if t.windowStart.IsZero() || now.Sub(t.windowStart) >= t.window {
			t.windowStart = now
			t.count = 0
		}
		if t.count < t.maxPerWindow {
			t.count++
			t.mu.Unlock()
			return nil
		}
		wait := t.window - now.Sub(t.windowStart)
		t.mu.Unlock()

		if err := t.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// InFlight returns the number of currently held concurrency slots
func (t *Throttle) InFlight() int {
	return len(t.slots)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
