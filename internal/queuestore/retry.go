package queuestore

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig parameterizes queue-store retry behavior (spec §4.4
// "Retry/back-pressure": "Connection and timeout errors retried up to
// RETRIES=3 with exponential backoff base 0.12s x 2^(attempt-1) +
// jitter(0-50ms). On persistent failure, surface the original error.").
type RetryConfig struct {
	BaseInterval time.Duration
	MaxAttempts  uint
}

// DefaultRetryConfig matches spec §4.4's literal retry parameters.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		BaseInterval: 120 * time.Millisecond,
		MaxAttempts:  3,
	}
}

// RetryCall runs op with exponential backoff per cfg. On exhaustion, the
// original error surfaces unwrapped-in-spirit (wrapped with %w by the
// caller).
func RetryCall[T any](ctx context.Context, cfg RetryConfig, op func(ctx context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.BaseInterval
	b.Multiplier = 2
	b.RandomizationFactor = float64(50*time.Millisecond) / float64(cfg.BaseInterval)
	b.MaxInterval = 5 * time.Second

	return backoff.Retry(ctx, func() (T, error) {
		return op(ctx)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(cfg.MaxAttempts),
	)
}
