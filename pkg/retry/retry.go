// Package retry runs an operation with bounded attempts and exponential backoff.
// Storage adapters wrap their calls with Do so that a transient failure costs a
// short wait instead of a whole ticker.
package retry

import (
	"context"
	"errors"
	"time"
)

// Policy holds retry configuration
type Policy struct {
	// Attempts is the total number of tries, including the first one
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration

	// Retryable reports whether err deserves another attempt. nil retries everything
	// except context cancellation and errors wrapped by Permanent.
	Retryable func(err error) bool

	// OnRetry is called before each wait
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Default is three attempts starting at 200ms
func Default() Policy {
	return Policy{
		Attempts:     3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Do calls fn until it succeeds, returns a non-retryable error, attempts run out
// or ctx is done. The last error is returned with any Permanent marker removed.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.InitialDelay

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}

		if ctx.Err() != nil || !p.retryable(err) || attempt == attempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	var perm *permanentError
	if errors.As(err, &perm) {
		return perm.err
	}
	return err
}

func (p Policy) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || IsPermanent(err) {
		return false
	}
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return true
}
