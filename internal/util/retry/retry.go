// Package retry runs an operation repeatedly until it succeeds, the
// attempt budget runs out, or the error is marked fatal. Delays between
// attempts grow geometrically up to a cap, and waits abort when the
// context is done.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config controls the attempt budget and the backoff curve.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func defaults() Config {
	return Config{
		MaxRetries:   5,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Option adjusts a Config.
type Option func(*Config)

// WithMaxRetries sets how many times a failed operation is re-run.
func WithMaxRetries(n int) Option {
	return func(c *Config) { c.MaxRetries = n }
}

// WithInitialDelay sets the wait before the first re-run.
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) { c.InitialDelay = d }
}

// WithMaxDelay caps the wait between re-runs.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) { c.MaxDelay = d }
}

// WithMultiplier sets the growth factor applied to the wait after each
// failed attempt.
func WithMultiplier(m float64) Option {
	return func(c *Config) { c.Multiplier = m }
}

// WithExponentialBackoff runs operation until it returns nil. A nil
// result ends the loop immediately; an error wrapped with Fatal ends it
// without further attempts. Otherwise the operation is re-run up to
// MaxRetries more times, waiting between attempts per the backoff
// curve. Cancelling ctx aborts a pending wait.
func WithExponentialBackoff(ctx context.Context, operation func() error, opts ...Option) error {
	cfg := defaults()
	for _, opt := range opts {
		opt(&cfg)
	}

	attempts := cfg.MaxRetries + 1
	wait := cfg.InitialDelay

	var err error
	for i := 0; i < attempts; i++ {
		if err = operation(); err == nil {
			return nil
		}
		if IsFatal(err) {
			return fmt.Errorf("fatal error (not retrying): %w", err)
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled after %d attempts: %w", i+1, ctx.Err())
		case <-time.After(wait):
		}
		wait = time.Duration(float64(wait) * cfg.Multiplier)
		if wait > cfg.MaxDelay {
			wait = cfg.MaxDelay
		}
	}

	return fmt.Errorf("operation failed after %d retries: %w", attempts, err)
}

// FatalError marks its wrapped error as not worth retrying.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal wraps err so WithExponentialBackoff stops on it instead of
// re-running the operation. A nil err stays nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal reports whether err carries a FatalError anywhere in its
// chain.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
