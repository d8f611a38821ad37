package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

var errConflict = errors.New("conflict")

func fastOptions(maxAttempts int) Options {
	opts := DefaultOptions()
	opts.MaxAttempts = maxAttempts
	opts.InitialInterval = time.Microsecond
	opts.MaxInterval = 10 * time.Microsecond
	return opts
}

func TestRetryProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("backoff starts at the initial interval and never exceeds the cap", prop.ForAll(
		func(initialNs, maxNs int64, multiplier float64, attempt int) bool {
			opts := Options{
				InitialInterval: time.Duration(initialNs),
				Multiplier:      multiplier,
				MaxInterval:     time.Duration(maxNs),
			}
			backoff := Backoff(attempt, opts)
			if backoff > opts.MaxInterval {
				return false
			}
			return attempt != 1 || backoff == opts.InitialInterval
		},
		gen.Int64Range(int64(10*time.Millisecond), int64(100*time.Millisecond)),
		gen.Int64Range(int64(1*time.Second), int64(5*time.Second)),
		gen.Float64Range(1.1, 3.0),
		gen.IntRange(1, 10),
	))

	properties.Property("attempts never exceed MaxAttempts", prop.ForAll(
		func(maxAttempts int) bool {
			count := 0
			err := Do(context.Background(), func(ctx context.Context, attempt int) error {
				count++
				return errConflict
			}, fastOptions(maxAttempts))
			return count == maxAttempts && errors.Is(err, ErrExhausted) && errors.Is(err, errConflict)
		},
		gen.IntRange(1, 10),
	))

	properties.Property("non-retryable errors stop the loop immediately", prop.ForAll(
		func(failAt int) bool {
			fatal := errors.New("fatal")
			count := 0
			opts := fastOptions(10)
			opts.Classifier = On(errConflict)

			err := Do(context.Background(), func(ctx context.Context, attempt int) error {
				count++
				if attempt == failAt {
					return fatal
				}
				return errConflict
			}, opts)
			return count == failAt && err == fatal
		},
		gen.IntRange(1, 5),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRetrySuccess(t *testing.T) {
	count := 0
	err := Do(context.Background(), func(ctx context.Context, attempt int) error {
		count++
		if attempt < 3 {
			return errConflict
		}
		return nil
	}, ConflictOptions(5, errConflict))

	assert.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestConflictOptionsIgnoreOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	count := 0
	err := Do(context.Background(), func(ctx context.Context, attempt int) error {
		count++
		return boom
	}, ConflictOptions(5, errConflict))

	assert.Equal(t, boom, err)
	assert.Equal(t, 1, count)
}

func TestRetryContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	opts := DefaultOptions()
	opts.InitialInterval = 100 * time.Millisecond

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, func(ctx context.Context, attempt int) error {
		return errors.New("waiting")
	}, opts)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestZeroAttemptsRunsOnce(t *testing.T) {
	count := 0
	_ = Do(context.Background(), func(ctx context.Context, attempt int) error {
		count++
		return errConflict
	}, Options{})
	assert.Equal(t, 1, count)
}
