package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsWithoutRetryOnFirstAttempt(t *testing.T) {
	clock := quartz.NewMock(t)
	calls := 0

	err := Do(context.Background(), clock, DefaultConfig(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccessWithinBound(t *testing.T) {
	clock := quartz.NewMock(t)
	calls := 0

	done := make(chan error, 1)
	go func() {
		done <- Do(context.Background(), clock, Config{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, Multiplier: 2}, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
	}()

	clock.Advance(10 * time.Millisecond).MustWait(context.Background())
	clock.Advance(20 * time.Millisecond).MustWait(context.Background())

	require.NoError(t, <-done)
	assert.Equal(t, 3, calls)
}

func TestDoReturnsLastErrorOnExhaustion(t *testing.T) {
	clock := quartz.NewMock(t)
	boom := errors.New("boom")

	done := make(chan error, 1)
	go func() {
		done <- Do(context.Background(), clock, Config{MaxAttempts: 2, BaseDelay: 5 * time.Millisecond, Multiplier: 2}, func() error {
			return boom
		})
	}()

	clock.Advance(5 * time.Millisecond).MustWait(context.Background())

	err := <-done
	assert.ErrorIs(t, err, boom)
}

func TestDoRespectsContextCancellationDuringBackoff(t *testing.T) {
	clock := quartz.NewMock(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, clock, Config{MaxAttempts: 5, BaseDelay: time.Second, Multiplier: 2}, func() error {
			return errors.New("always fails")
		})
	}()

	cancel()
	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}
