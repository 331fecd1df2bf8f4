package resilience

import (
	"errors"
	"fmt"
	"time"
)

// ErrorClass buckets failures for retry accounting
type ErrorClass string

const (
	ClassTransient ErrorClass = "transient"
	ClassOverload  ErrorClass = "overload"
)

// CircuitOpenError is returned without invoking the operation while the
// target's breaker is open.
type CircuitOpenError struct {
	Target  string
	RetryIn time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit open for %s (retry in %s)", e.Target, e.RetryIn.Round(time.Millisecond))
}

// ThrottleTimeoutError is returned when a caller gives up waiting for a
// throttle slot.
type ThrottleTimeoutError struct {
	Target string
}

func (e *ThrottleTimeoutError) Error() string {
	return fmt.Sprintf("throttled: timed out waiting for %s", e.Target)
}

// RetryExhaustedError wraps the last error after all attempts failed
type RetryExhaustedError struct {
	Target   string
	Attempts int
	Class    ErrorClass
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%s: %d attempts exhausted (%s): %v", e.Target, e.Attempts, e.Class, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// OverloadError marks an explicit rate/overload signal from a provider.
// Wrapped errors of this type get the conservative backoff schedule.
type OverloadError struct {
	Err error
}

func (e *OverloadError) Error() string { return fmt.Sprintf("overloaded: %v", e.Err) }

func (e *OverloadError) Unwrap() error { return e.Err }

// statusCoder is satisfied by errors that carry an HTTP status code
type statusCoder interface {
	StatusCode() int
}

// IsOverload reports whether err should use the conservative backoff:
// either an explicit OverloadError or a 429/529 status code.
func IsOverload(err error) bool {
	var oe *OverloadError
	if errors.As(err, &oe) {
		return true
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		code := sc.StatusCode()
		return code == 429 || code == 529
	}
	return false
}

// Classify returns the error class used for retry accounting
func Classify(err error) ErrorClass {
	if IsOverload(err) {
		return ClassOverload
	}
	return ClassTransient
}
