package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoStopsOnFirstSuccess(t *testing.T) {
	calls := 0
	policy := Policy{MaxAttempts: 5, Backoff: ConstantBackoff(0)}

	err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	policy := Policy{MaxAttempts: 3, Backoff: ConstantBackoff(0)}

	err := policy.Do(context.Background(), func() error {
		calls++
		return errors.New("still broken")
	})

	require.EqualError(t, err, "still broken")
	assert.Equal(t, 3, calls)
}

func TestZeroPolicyRunsOnce(t *testing.T) {
	calls := 0
	err := Policy{}.Do(context.Background(), func() error {
		calls++
		return errors.New("nope")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxAttempts: 10, Backoff: ConstantBackoff(time.Hour)}

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := policy.Do(ctx, func() error {
		calls++
		return errors.New("fail")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls, "cancellation interrupts the backoff wait")
}

func TestExponentialBackoff(t *testing.T) {
	backoff := ExponentialBackoff(100*time.Millisecond, time.Second)

	assert.Equal(t, 100*time.Millisecond, backoff(0))
	assert.Equal(t, 200*time.Millisecond, backoff(1))
	assert.Equal(t, 400*time.Millisecond, backoff(2))
	assert.Equal(t, time.Second, backoff(10), "capped at max")
	assert.Equal(t, time.Second, backoff(80), "shift overflow falls back to max")
}

func TestConstantBackoff(t *testing.T) {
	backoff := ConstantBackoff(50 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, backoff(0))
	assert.Equal(t, 50*time.Millisecond, backoff(7))
}
