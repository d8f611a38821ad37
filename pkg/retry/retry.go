package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrExhausted wraps the last error once every attempt has failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Func is one attempt. attempt starts at 1.
type Func func(ctx context.Context, attempt int) error

// Classifier reports whether an error is worth another attempt.
type Classifier func(error) bool

// Options defines the configuration for retries
type Options struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	Classifier      Classifier
}

// DefaultOptions retries every error with exponential backoff.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:     5,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		Classifier:      func(error) bool { return true },
	}
}

// ConflictOptions is tuned for optimistic read-modify-write loops: short
// waits, and only the given errors are retried.
func ConflictOptions(maxAttempts int, retryable ...error) Options {
	return Options{
		MaxAttempts:     maxAttempts,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     250 * time.Millisecond,
		Multiplier:      2.0,
		Classifier:      On(retryable...),
	}
}

// On retries errors matching any target via errors.Is.
func On(targets ...error) Classifier {
	return func(err error) bool {
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, the context
// ends or MaxAttempts is reached.
func Do(ctx context.Context, fn Func, opts Options) error {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if opts.Classifier != nil && !opts.Classifier(err) {
			return err
		}
		if attempt == opts.MaxAttempts {
			break
		}

		timer := time.NewTimer(Backoff(attempt, opts))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, opts.MaxAttempts, lastErr)
}

// Backoff returns the wait after the given failed attempt.
func Backoff(attempt int, opts Options) time.Duration {
	if attempt <= 1 {
		return opts.InitialInterval
	}

	interval := float64(opts.InitialInterval) * math.Pow(opts.Multiplier, float64(attempt-1))
	if interval > float64(opts.MaxInterval) {
		return opts.MaxInterval
	}
	return time.Duration(interval)
}
