// Package retry runs an operation a bounded number of times with a fixed
// pause between attempts and an optional hook before every retry.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes how an operation is retried
type Policy struct {
	// Attempts is the total number of tries, including the first one.
	Attempts int
	// Backoff is the constant pause between attempts.
	Backoff time.Duration
	// BeforeRetry, when set, runs after a failed attempt and before the pause
	// preceding the next one. It is not called after the final attempt.
	BeforeRetry func(ctx context.Context, attempt int, err error)
}

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs fn until it succeeds, returns a permanent error, the context is
// done, or Attempts tries have been made. attempt is 1-based. It returns the
// number of attempts made and the last error.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error) (int, error) {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	attempts := 0
	op := func() error {
		attempts++
		return fn(ctx, attempts)
	}
	notify := func(err error, _ time.Duration) {
		if p.BeforeRetry != nil {
			p.BeforeRetry(ctx, attempts, err)
		}
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Backoff), uint64(p.Attempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(op, b, notify)

	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		err = perm.Err
	}
	return attempts, err
}
