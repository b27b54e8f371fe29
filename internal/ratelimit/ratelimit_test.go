package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJitter(t *testing.T) {
	assert.Equal(t, time.Second, Jitter(time.Second, time.Second))
	assert.Equal(t, time.Second, Jitter(time.Second, 0))

	for i := 0; i < 50; i++ {
		d := Jitter(10*time.Millisecond, 20*time.Millisecond)
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, 20*time.Millisecond)
	}
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Sleep(ctx, time.Minute, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, Sleep(context.Background(), 0, 0))
}

func TestSimpleRateLimiterFirstCallDoesNotWait(t *testing.T) {
	r := NewSimpleRateLimiter(time.Hour, time.Hour)

	start := time.Now()
	require.NoError(t, r.Wait(context.Background()))
	assert.Less(t, time.Since(start), time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}

func TestAdaptiveRateLimiterBackoff(t *testing.T) {
	a := NewAdaptiveRateLimiter(2*time.Second, 4*time.Second)

	for i := 0; i < 3; i++ {
		a.RecordError()
	}
	min, max := a.Delays()
	assert.Equal(t, 3*time.Second, min)
	assert.Equal(t, 6*time.Second, max)

	for i := 0; i < 6; i++ {
		a.RecordSuccess()
	}
	min, _ = a.Delays()
	assert.Equal(t, 2700*time.Millisecond, min)

	for j := 0; j < 10; j++ {
		for i := 0; i < 6; i++ {
			a.RecordSuccess()
		}
	}
	min, _ = a.Delays()
	assert.Equal(t, 2*time.Second, min)
}
