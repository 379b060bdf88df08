package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds retry configuration
type Config struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	MaxTotalTimeout time.Duration
	// AttemptTimeout bounds each call; zero leaves attempts unbounded.
	AttemptTimeout time.Duration
}

// DefaultConfig suits store connections at startup: about a minute in total,
// five seconds per attempt.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     10,
		InitialDelay:    100 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		BackoffFactor:   2.0,
		MaxTotalTimeout: 60 * time.Second,
		AttemptTimeout:  5 * time.Second,
	}
}

// NotifyFunc is called before sleeping after a failed attempt.
type NotifyFunc func(attempt int, err error, nextDelay time.Duration)

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying (bad credentials, missing database).
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs fn with exponential backoff.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	return DoNotify(ctx, cfg, "operation", fn, nil)
}

// Connect pings a backing service until it answers, logging every failure.
func Connect(ctx context.Context, cfg Config, service string, ping func(ctx context.Context) error) error {
	return DoNotify(ctx, cfg, service, ping, func(attempt int, err error, nextDelay time.Duration) {
		log.Warn().
			Err(err).
			Str("service", service).
			Int("attempt", attempt).
			Dur("retry_in", nextDelay).
			Msg("connection attempt failed")
	})
}

// DoNotify runs fn with exponential backoff and reports each failed attempt.
// Errors are prefixed with name.
func DoNotify(ctx context.Context, cfg Config, name string, fn func(ctx context.Context) error, notify NotifyFunc) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.MaxTotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.MaxTotalTimeout)
		defer cancel()
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return aborted(name, attempt-1, err, lastErr)
		}

		err := call(ctx, cfg.AttemptTimeout, fn)
		if err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return fmt.Errorf("%s: %w", name, perm.err)
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}
		if notify != nil {
			notify(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return aborted(name, attempt, ctx.Err(), lastErr)
		case <-timer.C:
		}
		delay = nextDelay(cfg, delay)
	}

	return fmt.Errorf("%s: max retry attempts (%d) exceeded: %w", name, cfg.MaxAttempts, lastErr)
}

func call(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

func nextDelay(cfg Config, delay time.Duration) time.Duration {
	factor := cfg.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	delay = time.Duration(float64(delay) * factor)
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}

func aborted(name string, attempts int, ctxErr, lastErr error) error {
	if lastErr != nil {
		return fmt.Errorf("%s: retry aborted after %d attempts: %w (last error: %v)", name, attempts, ctxErr, lastErr)
	}
	return fmt.Errorf("%s: retry aborted: %w", name, ctxErr)
}
