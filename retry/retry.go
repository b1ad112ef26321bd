// Package retry provides a bounded retry mechanism for flaky remote operations
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// Operation represents a function that can be retried
type Operation func(ctx context.Context) error

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts including the initial attempt
	MaxAttempts int

	// Delay is the wait before the first retry
	Delay time.Duration

	// MaxDelay is the maximum wait between retries
	MaxDelay time.Duration

	// Multiplier is the factor by which the wait grows; 1 keeps a fixed cadence
	Multiplier float64

	// OnRetry is called after each failed attempt
	OnRetry func(attempt int, err error)
}

// FixedConfig returns a fixed-cadence configuration: attempts retries spaced
// by delay, no backoff growth.
func FixedConfig(attempts int, delay time.Duration) Config {
	return Config{
		MaxAttempts: attempts,
		Delay:       delay,
		MaxDelay:    delay,
		Multiplier:  1.0,
	}
}

// Do retries an operation until it succeeds, its error is marked permanent,
// or the attempt budget is spent.
func Do(ctx context.Context, op Operation, cfg Config) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("operation cancelled: %w", ctx.Err())
		default:
		}

		if attempt > 0 {
			timer := time.NewTimer(delayFor(attempt, cfg))

			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("operation cancelled during wait: %w", ctx.Err())
			case <-timer.C:
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err)
		}

		if IsPermanent(err) {
			return fmt.Errorf("non-retryable error: %w", err)
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// delayFor calculates the wait before a given retry attempt
func delayFor(attempt int, cfg Config) time.Duration {
	delay := float64(cfg.Delay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}

// PermanentError marks an error that must not be retried
type PermanentError struct {
	err error
}

// Error implements the error interface
func (e *PermanentError) Error() string {
	return e.err.Error()
}

// Unwrap returns the underlying error
func (e *PermanentError) Unwrap() error {
	return e.err
}

// Permanent wraps an error so Do stops retrying immediately
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{err: err}
}

// IsPermanent checks whether an error is marked permanent
func IsPermanent(err error) bool {
	var permanent *PermanentError
	return errors.As(err, &permanent)
}
