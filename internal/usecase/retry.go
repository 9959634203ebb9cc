package usecase

import (
	"context"
	"time"

	"github.com/DiegoDok7/hiperalia-ean-processing/internal/domain"
	"github.com/DiegoDok7/hiperalia-ean-processing/internal/logging"
)

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc: a timer that yields to ctx cancellation
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy bounds the retry of retryable provider errors
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Sleep       SleepFunc
}

// DefaultRetryPolicy is two attempts one minute apart
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2, Delay: 60 * time.Second, Sleep: Sleep}
}

// WithRetry calls op, and calls it again after the policy delay while it
// returns a retryable error and attempts remain. Each attempt's outcome
// replaces the previous one. It returns the final outcome and the number of
// attempts made. Success and non-retryable errors return without sleeping.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, op func(ctx context.Context) (T, error)) (T, int, error) {
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	result, err := op(ctx)
	attempts := 1
	for attempts < maxAttempts && err != nil && domain.IsRetryable(err) {
		logging.Component(ctx, "retry").Warn("retryable error, waiting before next attempt",
			"attempt", attempts, "delay", policy.Delay, "error", err)

		if sleepErr := sleep(ctx, policy.Delay); sleepErr != nil {
			return result, attempts, err
		}
		result, err = op(ctx)
		attempts++
	}
	return result, attempts, err
}
