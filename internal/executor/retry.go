package executor

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/Naeaerc20/polymarket-copy-bot/internal/platform/polymarket"
)

// RetryPolicy bounds how order submissions are retried on transient
// failures. Rejections are wrapped in backoff.Permanent by the caller and
// never retried.
type RetryPolicy struct {
	MaxTries        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy matches the submission retry behavior used in live
// trading: three attempts with short exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxTries:        3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Execute runs op under the policy and returns its last result.
func (p RetryPolicy) Execute(ctx context.Context, op func() (polymarket.OrderResponse, error)) (polymarket.OrderResponse, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.MaxInterval = p.MaxInterval

	return backoff.Retry(ctx,
		func() (polymarket.OrderResponse, error) { return op() },
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(p.MaxTries),
	)
}
