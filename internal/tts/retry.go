package tts

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy caps attempts and shapes the backoff between them.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryPolicy matches the pipeline defaults: 3 attempts, 500ms base,
// 8s ceiling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     8 * time.Second,
	}
}

// Delay returns the backoff applied before attempt n:
// min(initial * 2^(n-1), max) for n >= 2, zero before the first attempt.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 2 {
		return 0
	}
	delay := p.InitialDelay << (attempt - 1)
	if delay <= 0 || delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Retry runs op up to the policy's attempt cap, sleeping the policy delay
// before every retry. Every error from op is treated as transient; the last
// one is wrapped and returned once attempts are exhausted. The attempt count
// actually used is always returned. Context cancellation aborts the wait and
// surfaces ctx.Err().
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(context.Context) (T, error)) (T, int, error) {
	var zero T
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(policy.Delay(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, attempt - 1, ctx.Err()
			case <-timer.C:
			}
		}
		result, err := op(ctx)
		if err == nil {
			return result, attempt, nil
		}
		lastErr = err
	}
	return zero, policy.MaxAttempts, fmt.Errorf("all %d attempts failed: %w", policy.MaxAttempts, lastErr)
}
