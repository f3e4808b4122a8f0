package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrConflict marks a transaction that lost a race with a concurrent writer and may be retried.
var ErrConflict = errors.New("ledger transaction conflict")

const DefaultMaxAttempts = 5

// runWithRetry re-runs attempt while it fails with ErrConflict, up to maxAttempts times.
func runWithRetry(ctx context.Context, maxAttempts int, attempt func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var err error
	for i := 0; i < maxAttempts; i++ {
		err = attempt()
		if !errors.Is(err, ErrConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", maxAttempts, err)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
