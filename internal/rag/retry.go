package rag

import (
	"context"
	"errors"
	"time"
)

// coldStartBackoff is how long we wait before the single retry when the
// completion backend reports the model is still loading. It is also the
// delay reported back to the caller when the retry does not resolve it.
const coldStartBackoff = 15 * time.Second

// completeWithRetry runs one completion attempt and, only on a cold-start
// signal, retries exactly once after backoff. Any other outcome (success or
// hard failure) is terminal. The wait is a timer scoped to this invocation,
// so cancelling the request context aborts it.
func completeWithRetry(ctx context.Context, backoff time.Duration, attempt func() error) error {
	err := attempt()
	if !errors.Is(err, ErrModelLoading) {
		return err
	}

	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	return attempt()
}
