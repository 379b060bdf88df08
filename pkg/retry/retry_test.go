package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      2 * time.Millisecond,
		BackoffFactor: 2,
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(5), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoNotify_ExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("connection refused")
	var logged []int

	err := DoNotify(context.Background(), fastConfig(3), "SQLite", func(ctx context.Context) error {
		return sentinel
	}, func(attempt int, err error, nextDelay time.Duration) {
		logged = append(logged, attempt)
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "SQLite: max retry attempts (3) exceeded")
	assert.Equal(t, []int{1, 2}, logged)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	sentinel := errors.New("password authentication failed")
	calls := 0

	err := Do(context.Background(), fastConfig(5), func(ctx context.Context) error {
		calls++
		return Permanent(sentinel)
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
	assert.Nil(t, Permanent(nil))
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, fastConfig(5), func(ctx context.Context) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestDo_AttemptTimeoutBoundsEachCall(t *testing.T) {
	cfg := fastConfig(2)
	cfg.AttemptTimeout = 5 * time.Millisecond

	var deadlines int
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); ok {
			deadlines++
		}
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, deadlines)
}

func TestNextDelay(t *testing.T) {
	cfg := Config{BackoffFactor: 3, MaxDelay: 50 * time.Millisecond}
	assert.Equal(t, 30*time.Millisecond, nextDelay(cfg, 10*time.Millisecond))
	assert.Equal(t, 50*time.Millisecond, nextDelay(cfg, 30*time.Millisecond))

	cfg.BackoffFactor = 0
	assert.Equal(t, 10*time.Millisecond, nextDelay(cfg, 10*time.Millisecond))
}
