package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velasqa/manualsearch/internal/core"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	out, err := Retry(context.Background(), 3, time.Millisecond, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, calls)
}

func TestRetryReturnsLastErrorUnchanged(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 3, time.Millisecond, func(ctx context.Context) (int, error) {
		calls++
		return 0, fmt.Errorf("attempt %d failed", calls)
	})
	require.Error(t, err)
	assert.EqualError(t, err, "attempt 3 failed")
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnValidationError(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 5, time.Millisecond, func(ctx context.Context) (string, error) {
		calls++
		return "", fmt.Errorf("%w: content too short", core.ErrValidation)
	})
	require.ErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, 1, calls)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Retry(ctx, 3, time.Minute, func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("always fails")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
