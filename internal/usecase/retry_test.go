package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/stretchr/testify/assert"
)

type scriptedOp struct {
	results []error
	calls   []time.Time
	clock   *fakeClock
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.now = c.now.Add(d)
	return nil
}

func (o *scriptedOp) run(ctx context.Context) (string, error) {
	o.calls = append(o.calls, o.clock.now)
	err := o.results[len(o.calls)-1]
	if err != nil {
		return "", err
	}
	return "ok", nil
}

func TestWithRetry(t *testing.T) {
	retryable := domain.NewRetryableError(domain.SourceGoUPC, domain.ErrRateLimited, "too many requests")
	terminal := domain.NewProviderError(domain.SourceGoUPC, domain.ErrNotFound, "not found", nil)

	tests := []struct {
		name         string
		results      []error
		wantCalls    int
		wantErr      error
		wantAttempts int
	}{
		{"ok first time", []error{nil}, 1, nil, 1},
		{"non-retryable error", []error{terminal}, 1, domain.ErrNotFound, 1},
		{"retryable then ok", []error{retryable, nil}, 2, nil, 2},
		{"retryable twice", []error{retryable, retryable}, 2, domain.ErrRateLimited, 2},
		{"retryable then terminal", []error{retryable, terminal}, 2, domain.ErrNotFound, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
			op := &scriptedOp{results: tt.results, clock: clock}
			policy := RetryPolicy{MaxAttempts: 2, Delay: 60 * time.Second, Sleep: clock.Sleep}

			got, attempts, err := WithRetry(context.Background(), policy, op.run)

			assert.Len(t, op.calls, tt.wantCalls)
			assert.Equal(t, tt.wantAttempts, attempts)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.Equal(t, "ok", got)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if len(op.calls) == 2 {
				assert.GreaterOrEqual(t, op.calls[1].Sub(op.calls[0]), 60*time.Second)
			}
		})
	}
}

func TestWithRetry_NoSleepWithoutRetry(t *testing.T) {
	sleeper := &recordingSleep{}
	policy := RetryPolicy{MaxAttempts: 2, Delay: time.Minute, Sleep: sleeper.Sleep}

	_, _, err := WithRetry(context.Background(), policy, func(ctx context.Context) (int, error) {
		return 0, errors.New("plain failure")
	})

	assert.Error(t, err)
	assert.Empty(t, sleeper.delays)
}

func TestWithRetry_SleepInterrupted(t *testing.T) {
	calls := 0
	policy := RetryPolicy{MaxAttempts: 2, Delay: time.Minute, Sleep: func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}}

	_, attempts, err := WithRetry(context.Background(), policy, func(ctx context.Context) (int, error) {
		calls++
		return 0, domain.NewRetryableError("test", domain.ErrRateLimited, "slow down")
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestSleep_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Hour)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}
