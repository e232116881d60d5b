package resilience

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xthxr/DevAura/internal/errors"
)

func fastPolicy() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}
}

func TestRetryWithConfig(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{"succeeds first time", []error{nil}, 1, false},
		{"succeeds after transient failures", []error{errors.New("reset"), errors.New("reset"), nil}, 3, false},
		{"gives up after max attempts", []error{errors.New("a"), errors.New("b"), errors.New("c"), nil}, 3, true},
		{"does not retry 404", []error{NewHTTPError(http.StatusNotFound, "404 Not Found"), nil}, 1, true},
		{"retries 503", []error{NewHTTPError(http.StatusServiceUnavailable, "503"), nil}, 2, false},
		{"does not retry validation errors", []error{apperrors.NewValidationError("bad"), nil}, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithConfig(context.Background(), fastPolicy(), func() error {
				e := tt.errs[calls]
				calls++
				return e
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastPolicy()
	cfg.InitialDelay = time.Hour
	cfg.MaxDelay = time.Hour

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- RetryWithConfig(ctx, cfg, func() error {
			calls++
			return errors.New("transient")
		})
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.EqualError(t, err, "transient")
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("retry did not stop on cancel")
	}
}

func TestCalculateDelayCaps(t *testing.T) {
	cfg := ProviderRetryPolicy.Config
	cfg.JitterEnabled = false
	assert.Equal(t, 200*time.Millisecond, calculateDelay(cfg, 0))
	assert.Equal(t, 400*time.Millisecond, calculateDelay(cfg, 1))
	assert.Equal(t, 2*time.Second, calculateDelay(cfg, 10))
}

func TestCircuitBreakerLifecycle(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, RecoveryTimeout: time.Minute, SuccessThreshold: 1})
	now := time.Now()
	cb.now = func() time.Time { return now }
	boom := errors.New("boom")

	assert.Equal(t, boom, cb.Call(func() error { return boom }))
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, boom, cb.Call(func() error { return boom }))
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	var cbErr *CircuitBreakerError
	require.ErrorAs(t, err, &cbErr)
	assert.False(t, called)
	assert.False(t, IsRetryable(err))

	now = now.Add(time.Minute)
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Second})
	now := time.Now()
	cb.now = func() time.Time { return now }

	_ = cb.Call(func() error { return errors.New("x") })
	now = now.Add(2 * time.Second)
	_ = cb.Call(func() error { return errors.New("still down") })
	assert.Equal(t, StateOpen, cb.State())
}

func TestRegistryStats(t *testing.T) {
	r := NewCircuitBreakerRegistry(CircuitBreakerConfig{FailureThreshold: 1})
	_ = r.Get("leetcode").Call(func() error { return errors.New("x") })
	r.Get("github")

	stats := r.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, BreakerStats{Name: "github", State: "closed"}, stats[0])
	assert.Equal(t, "open", stats[1].State)
	assert.Same(t, r.Get("github"), r.Get("github"))
}

func TestDegradationManager(t *testing.T) {
	dm := NewDegradationManager(DefaultDegradationConfig())
	for i := 0; i < 9; i++ {
		dm.RecordSuccess("github")
	}
	dm.RecordDefaulted("github", errors.New("timeout"))
	dm.RecordDefaulted("leetcode", errors.New("timeout"))

	health := dm.Health()
	require.Len(t, health, 2)
	assert.Equal(t, "github", health[0].ServiceName)
	assert.Equal(t, "degraded", health[0].Level)
	assert.InDelta(t, 0.1, health[0].ErrorRate, 1e-9)
	assert.Equal(t, "critical", health[1].Level)
	assert.Equal(t, int64(1), health[1].Defaulted)
}
