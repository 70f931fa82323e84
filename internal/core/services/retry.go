package services

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/tenderlens/tenderlens-cli/internal/core/domain"
	"github.com/tenderlens/tenderlens-cli/internal/logger"
)

// Backoff bounds for provider call retries.
const (
	backoffBase = 500 * time.Millisecond
	backoffMax  = 30 * time.Second
)

// backoff returns the wait before retry n (0-indexed) with jitter.
func backoff(attempt int) time.Duration {
	d := backoffBase << uint(attempt)
	if d > backoffMax {
		d = backoffMax
	}
	jitter := time.Duration(rand.Int64N(int64(d)/2 + 1))
	return d + jitter
}

// withRetry runs fn with bounded retry and exponential backoff.
// Errors marked permanent (invalid credentials, malformed requests) and
// context cancellation fail immediately; everything else is retried up
// to maxAttempts.
func withRetry(ctx context.Context, maxAttempts int, op string, fn func(context.Context) error) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			wait := backoff(attempt - 1)
			logger.Debug("Retrying %s in %s (attempt %d/%d)", op, wait, attempt+1, maxAttempts)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if domain.IsPermanent(err) {
			logger.Warn("%s failed permanently: %v", op, err)
			return err
		}
	}

	return err
}
