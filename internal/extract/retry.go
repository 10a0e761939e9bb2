package extract

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig parameterizes the Stage B extractor's retry behavior (spec
// §4.1 "Model-assisted extraction retries on transient failure: base
// 0.75s, factor 2, +-50ms jitter, 30s hard cap per attempt").
type RetryConfig struct {
	BaseInterval  time.Duration
	Factor        float64
	Jitter        time.Duration
	MaxAttempts   uint
	PerAttemptCap time.Duration
}

// DefaultRetryConfig matches spec §4.1's literal retry parameters.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		BaseInterval:  750 * time.Millisecond,
		Factor:        2,
		Jitter:        50 * time.Millisecond,
		MaxAttempts:   3,
		PerAttemptCap: 30 * time.Second,
	}
}

// RetryCall runs op with exponential backoff per cfg, capping each
// attempt at PerAttemptCap and giving up after MaxAttempts.
func RetryCall[T any](ctx context.Context, cfg RetryConfig, op func(ctx context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.BaseInterval
	b.Multiplier = cfg.Factor
	b.RandomizationFactor = jitterFraction(cfg.BaseInterval, cfg.Jitter)
	b.MaxInterval = 30 * time.Second

	return backoff.Retry(ctx, func() (T, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, cfg.PerAttemptCap)
		defer cancel()
		return op(attemptCtx)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(cfg.MaxAttempts),
	)
}

// jitterFraction converts an absolute jitter window into the fraction
// backoff.ExponentialBackOff expects (RandomizationFactor is applied as
// +-frac*interval).
func jitterFraction(base, jitter time.Duration) float64 {
	if base <= 0 {
		return 0
	}
	return float64(jitter) / float64(base)
}
