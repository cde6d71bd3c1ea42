package operations

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/smartcontractkit/test-operations/pkg/logger"
)

const defaultMaxAttempts = 10

// RetryPolicy controls how a leaf action is retried when it fails.
type RetryPolicy struct {
	// Enabled determines if the retry is enabled for the operation.
	Enabled bool

	// MaxAttempts is the total number of attempts, including the first one.
	// Zero means the default of 10.
	MaxAttempts uint

	// Delay is the base delay between attempts, growing with exponential backoff.
	// Zero keeps the retry-go default.
	Delay time.Duration
}

// WithRetry retries the execute and revert actions of a leaf operation using
// policy. Validators are never retried. The error returned after the last
// attempt is the action's own error.
//
// To cancel the retry early, return an error with NewUnrecoverableError.
// Errors wrapping ErrInvalidState are never retried.
func WithRetry(policy RetryPolicy) Option {
	return func(o *options) {
		o.retry = policy
		o.retry.Enabled = true
	}
}

// NewUnrecoverableError creates an error that indicates an unrecoverable error.
// If this error is returned by a leaf action, the action will no longer retry
// and err itself is returned to the caller.
func NewUnrecoverableError(err error) error {
	return retry.Unrecoverable(err)
}

// options returns the 'avast/retry' functional options for the retry policy.
func (p RetryPolicy) options(ctx context.Context) []retry.Option {
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = defaultMaxAttempts
	}
	opts := []retry.Option{
		retry.Attempts(attempts),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return retry.IsRecoverable(err) && !errors.Is(err, ErrInvalidState)
		}),
	}
	if p.Delay > 0 {
		opts = append(opts, retry.Delay(p.Delay))
	}

	return opts
}

// runAction calls action once, or under the retry policy when it is enabled.
func runAction(
	ctx context.Context, lggr logger.Logger, name string, policy RetryPolicy, action func(context.Context) error,
) error {
	if !policy.Enabled {
		return action(ctx)
	}

	opts := append(policy.options(ctx), retry.OnRetry(func(attempt uint, err error) {
		lggr.Debugw("Operation action failed. Retrying...", "operation", name, "attempt", attempt, "error", err)
	}))

	return retry.Do(func() error {
		return action(ctx)
	}, opts...)
}
