package quickmail

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"time"
)

// RetryManager retries deliveries that failed with a retryable error.
type RetryManager struct {
	config RetryConfig
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewRetryManager creates a new retry manager with the given configuration.
func NewRetryManager(config RetryConfig) *RetryManager {
	return &RetryManager{
		config: config,
		sleep:  sleepContext,
	}
}

// Retry runs fn until it succeeds, fails with a non-retryable error, the
// attempts run out or ctx is done.
func (r *RetryManager) Retry(ctx context.Context, fn func() error) error {
	if !r.config.Enabled {
		return fn()
	}

	var lastErr error
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == r.config.MaxAttempts {
			break
		}

		if err := r.sleep(ctx, r.calculateDelay(attempt)); err != nil {
			return err
		}
	}

	return lastErr
}

// calculateDelay calculates the delay for the given attempt number.
func (r *RetryManager) calculateDelay(attempt int) time.Duration {
	delay := time.Duration(float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1)))

	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}

	if r.config.Jitter {
		if maxJitter := int64(float64(delay) * 0.1); maxJitter > 0 {
			if j, err := rand.Int(rand.Reader, big.NewInt(maxJitter)); err == nil {
				delay += time.Duration(j.Int64())
			}
		}
	}

	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
