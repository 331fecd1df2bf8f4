package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tokenlens/tokenlens/internal/model"
)

func testResilienceConfig() model.ResilienceConfig {
	cfg := model.DefaultConfig().Resilience
	cfg.FailureThreshold = 2
	cfg.MaxRetries = 0
	cfg.BaseDelay = time.Millisecond
	cfg.MinRequestInterval = 0
	cfg.RecoveryTimeout = time.Hour
	return cfg
}

func TestExecutor_CallPassesThroughResult(t *testing.T) {
	exec := NewExecutor(testResilienceConfig())

	out, err := exec.Call(context.Background(), "api", func(ctx context.Context) (any, error) {
		return "payload", nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if out != "payload" {
		t.Errorf("expected payload, got %v", out)
	}
}

func TestExecutor_BreakerOpensAndFailsFast(t *testing.T) {
	exec := NewExecutor(testResilienceConfig())
	ctx := context.Background()

	boom := func(ctx context.Context) (any, error) { return nil, errors.New("boom") }
	for i := 0; i < 2; i++ {
		if _, err := exec.Call(ctx, "api", boom); err == nil {
			t.Fatal("expected failure")
		}
	}
	if exec.BreakerState("api") != StateOpen {
		t.Fatalf("expected OPEN breaker, got %s", exec.BreakerState("api"))
	}

	invoked := false
	_, err := exec.Call(ctx, "api", func(ctx context.Context) (any, error) {
		invoked = true
		return nil, nil
	})
	var open *CircuitOpenError
	if !errors.As(err, &open) {
		t.Fatalf("expected CircuitOpenError, got %v", err)
	}
	if invoked {
		t.Error("operation must not be invoked while the breaker is open")
	}
}

func TestExecutor_TargetsAreIsolated(t *testing.T) {
	exec := NewExecutor(testResilienceConfig())
	ctx := context.Background()

	boom := func(ctx context.Context) (any, error) { return nil, errors.New("boom") }
	for i := 0; i < 2; i++ {
		_, _ = exec.Call(ctx, "flaky", boom)
	}

	if _, err := exec.Call(ctx, "healthy", func(ctx context.Context) (any, error) {
		return 42, nil
	}); err != nil {
		t.Fatalf("healthy target affected by flaky target's breaker: %v", err)
	}
}

func TestExecutor_RetriesThenExhausts(t *testing.T) {
	cfg := testResilienceConfig()
	cfg.MaxRetries = 2
	cfg.FailureThreshold = 100
	exec := NewExecutor(cfg)

	calls := 0
	_, err := exec.Call(context.Background(), "api", func(ctx context.Context) (any, error) {
		calls++
		return nil, errors.New("transient")
	})

	var exhausted *RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RetryExhaustedError, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}
