package reembed

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// MaxRetryDelay caps the backoff between two attempts.
const MaxRetryDelay = 30 * time.Second

// RetryWithBackoff runs operation until it succeeds, maxAttempts is reached
// or ctx is done. The delay before attempt n+1 is baseDelay * 2^(n-1),
// capped at MaxRetryDelay. Context errors returned by operation are not retried.
func RetryWithBackoff(ctx context.Context, operation func() error, maxAttempts int, baseDelay time.Duration) error {
	if maxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", maxAttempts, "delay", delay, "error", lastErr)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, MaxRetryDelay)
	}

	return lastErr
}
