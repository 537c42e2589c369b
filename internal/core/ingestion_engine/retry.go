package ingestion_engine

import (
	"context"
	"errors"
	"time"

	"github.com/velasqa/manualsearch/internal/core"
)

// Retry invokes op up to attempts times with a linearly increasing wait
// between failures (backoffStep × attempt index). The final attempt's error
// is returned unchanged, never wrapped. Validation errors are terminal: an
// input the callee rejected will not become acceptable on a later attempt.
func Retry[T any](ctx context.Context, attempts int, backoffStep time.Duration, op func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, core.ErrValidation) {
			return zero, err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoffStep * time.Duration(attempt)):
		}
	}
	return zero, lastErr
}
