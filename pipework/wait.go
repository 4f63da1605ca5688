package pipework

import (
	"context"
	"fmt"
	"time"
)

// waitFunc blocks until done is closed or the policy gives up, returning
// the policy's failure in the latter case.
type waitFunc func(done <-chan struct{}) error

// waitForever waits until done is closed or ctx is done.
func waitForever(ctx context.Context) waitFunc {
	return func(done <-chan struct{}) error {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
		}
	}
}

// waitUntil waits until done is closed or the deadline passes.
func waitUntil(deadline time.Time) waitFunc {
	return func(done <-chan struct{}) error {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			// An already-passed deadline still gets the smallest positive
			// wait, never an immediate poll.
			remaining = time.Nanosecond
		}
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		select {
		case <-done:
			return nil
		case <-timer.C:
			return ErrTimeout
		}
	}
}

// waitNever only succeeds if done is already closed.
func waitNever(done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	default:
		return ErrUnavailable
	}
}

func deadlineAfter(timeout time.Duration) (time.Time, error) {
	if timeout < 0 {
		return time.Time{}, ErrNegativeTimeout
	}
	return time.Now().Add(timeout), nil
}
