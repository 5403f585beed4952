package optimize

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jonathan/resume-optimizer/internal/llm"
)

// RetryPolicy bounds retries of one collaborator call.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy returns three attempts with exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// retryable reports whether another attempt could succeed.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, llm.ErrMissingAPIKey), errors.Is(err, llm.ErrProviderUnavailable):
		return false
	case llm.IsAuthError(err):
		return false
	}
	return true
}

// callObserver is told about every attempt.
type callObserver func(operation string, err error)

// withRetry runs fn under the policy. Cancellation and configuration
// errors end the loop at once; anything else is retried until the attempt
// cap, after which the last error is returned.
func withRetry[T any](ctx context.Context, p RetryPolicy, operation string, logger *slog.Logger, observe callObserver, fn func(context.Context) (T, error)) (T, error) {
	attempt := 0
	op := func() (T, error) {
		attempt++
		v, err := fn(ctx)
		if observe != nil {
			observe(operation, err)
		}
		if err != nil && !retryable(ctx, err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	notify := func(err error, next time.Duration) {
		logger.Warn("collaborator call failed, retrying",
			"operation", operation,
			"attempt", attempt,
			"retry_in", next,
			"error", err)
	}
	return backoff.RetryNotifyWithData(op, p.backOff(ctx), notify)
}
