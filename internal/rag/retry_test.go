package rag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteWithRetry_SuccessFirstTry(t *testing.T) {
	attempts := 0

	err := completeWithRetry(context.Background(), time.Millisecond, func() error {
		attempts++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestCompleteWithRetry_HardFailureIsNotRetried(t *testing.T) {
	attempts := 0
	hard := &CompletionError{StatusCode: 500, Message: "boom"}

	err := completeWithRetry(context.Background(), time.Millisecond, func() error {
		attempts++
		return hard
	})

	assert.Equal(t, 1, attempts)
	var cerr *CompletionError
	require.ErrorAs(t, err, &cerr)
}

func TestCompleteWithRetry_ColdStartRetriesExactlyOnce(t *testing.T) {
	attempts := 0

	err := completeWithRetry(context.Background(), time.Millisecond, func() error {
		attempts++
		return ErrModelLoading
	})

	assert.Equal(t, 2, attempts)
	assert.ErrorIs(t, err, ErrModelLoading)
}

func TestCompleteWithRetry_ColdStartThenSuccess(t *testing.T) {
	attempts := 0

	err := completeWithRetry(context.Background(), time.Millisecond, func() error {
		attempts++
		if attempts == 1 {
			return ErrModelLoading
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestCompleteWithRetry_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := completeWithRetry(ctx, 5*time.Second, func() error {
		attempts++
		return ErrModelLoading
	})

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, attempts)
	assert.True(t, errors.Is(err, context.Canceled))
}
