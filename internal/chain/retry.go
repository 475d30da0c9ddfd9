package chain

import (
	"context"
	"time"
)

const (
	defaultMaxRetries = 2
	defaultRetryDelay = 200 * time.Millisecond
)

// withRetry reruns fn with doubling backoff on failure. Only used for
// idempotent reads where a failure is transport noise, never where the
// error carries call semantics such as a revert.
func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = defaultRetryDelay
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
