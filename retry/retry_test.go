package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	}, FixedConfig(5, time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 1, calls, "no further attempts after success")
}

func TestDoStopsAtFirstSuccess(t *testing.T) {
	for succeedOn := 1; succeedOn <= 5; succeedOn++ {
		calls := 0
		err := Do(context.Background(), func(ctx context.Context) error {
			calls++
			if calls < succeedOn {
				return errors.New("not yet")
			}
			return nil
		}, FixedConfig(5, time.Millisecond))

		require.NoError(t, err, "succeedOn=%d", succeedOn)
		assert.Equal(t, succeedOn, calls, "succeedOn=%d", succeedOn)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	attemptsSeen := []int{}
	cfg := FixedConfig(5, time.Millisecond)
	cfg.OnRetry = func(attempt int, err error) {
		attemptsSeen = append(attemptsSeen, attempt)
	}

	base := errors.New("connection refused")
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return base
	}, cfg)

	require.Error(t, err)
	assert.Equal(t, 5, calls, "at most MaxAttempts attempts")
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "after 5 attempts")
	assert.Equal(t, []int{1, 2, 3, 4, 5}, attemptsSeen)
}

func TestDoFixedCadence(t *testing.T) {
	delay := 30 * time.Millisecond
	var stamps []time.Time

	err := Do(context.Background(), func(ctx context.Context) error {
		stamps = append(stamps, time.Now())
		return errors.New("still down")
	}, FixedConfig(3, delay))

	require.Error(t, err)
	require.Len(t, stamps, 3)
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		assert.GreaterOrEqual(t, gap, delay, "gap %d shorter than configured delay", i)
		// Generous upper bound, just to catch runaway backoff growth
		assert.Less(t, gap, 10*delay, "gap %d not a fixed cadence", i)
	}
}

func TestDoPermanentStopsRetrying(t *testing.T) {
	calls := 0
	base := errors.New("bad role")
	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(base)
	}, FixedConfig(5, time.Millisecond))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, base)
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	}, FixedConfig(5, time.Hour))

	require.Error(t, err)
	assert.Equal(t, 1, calls, "cancellation must preempt the inter-attempt wait")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
	assert.False(t, IsPermanent(nil))
}
