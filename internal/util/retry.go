package util

import (
	"context"
	"errors"
	"time"
)

// RetryBackoff is the pause before the second attempt. It doubles on every
// further attempt. Tests set it to zero.
var RetryBackoff = 100 * time.Millisecond

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func wait(ctx context.Context, attempt int) error {
	if attempt == 0 || RetryBackoff <= 0 {
		return ctx.Err()
	}
	d := RetryBackoff << (attempt - 1)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryErrWithContext calls fn up to maxTries times until it returns nil,
// backing off between attempts. If maxTries <= 0, it defaults to 1.
// Context errors stop the loop immediately and are returned as is.
func RetryErrWithContext(ctx context.Context, maxTries int, fn func(context.Context) error) error {
	_, err := RetryWithContext(ctx, maxTries, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// RetryWithContext is RetryErrWithContext for functions returning a value.
func RetryWithContext[T any](ctx context.Context, maxTries int, fn func(context.Context) (T, error)) (T, error) {
	if maxTries <= 0 {
		maxTries = 1
	}
	var lastErr error
	var zero T
	for i := 0; i < maxTries; i++ {
		if err := wait(ctx, i); err != nil {
			return zero, err
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if isContextErr(err) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}
