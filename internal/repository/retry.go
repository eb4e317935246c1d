package repository

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrConcurrentUpdate   = errors.New("concurrent update detected")
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

const (
	maxAtomicRetries = 3
	atomicBaseDelay  = 2 * time.Millisecond
)

// withAtomicRetry retries transient conflicts with exponential backoff
// (2ms, 4ms, 8ms). Permanent outcomes (validation, insufficient funds or
// points, missing rows) surface immediately.
func withAtomicRetry(ctx context.Context, attempt func() error) error {
	for i := 0; i <= maxAtomicRetries; i++ {
		err := attempt()

		if err == nil {
			return nil
		}

		if !errors.Is(err, ErrConcurrentUpdate) {
			return err
		}

		if i < maxAtomicRetries {
			delay := atomicBaseDelay * time.Duration(1<<i)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				continue
			}
		}
	}

	return fmt.Errorf("%w: failed after %d attempts", ErrMaxRetriesExceeded, maxAtomicRetries+1)
}
