// Package retry wraps external-dependency calls in an explicit retry
// policy. Policy is plain data supplied at the call site, not behavior
// hidden behind annotations.
package retry

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy describes how an operation is retried.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
	Jitter      time.Duration
}

// DefaultPolicy suits short external calls such as engine searches and
// store round-trips.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	Backoff:     200 * time.Millisecond,
	Jitter:      50 * time.Millisecond,
}

// Do runs op, retrying every failure under the policy until attempts are
// exhausted or ctx is done. The last error is returned.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	b := retry.NewExponential(p.Backoff)
	if p.Jitter > 0 {
		b = retry.WithJitter(p.Jitter, b)
	}
	b = retry.WithMaxRetries(uint64(p.MaxAttempts-1), b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := op(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
