// Package retry implements a parameterized retry policy: a fixed number of
// attempts with a configurable delay schedule between them.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Schedule returns the delay to wait after a failed attempt.
// Attempts are numbered from zero.
type Schedule func(attempt int) time.Duration

// Fixed waits the same interval after every failed attempt.
func Fixed(interval time.Duration) Schedule {
	return func(int) time.Duration {
		return interval
	}
}

// Exponential doubles the delay for every failed attempt:
// base, 2*base, 4*base, and so on.
func Exponential(base time.Duration) Schedule {
	return func(attempt int) time.Duration {
		return base << attempt
	}
}

type Policy struct {
	Attempts int
	Schedule Schedule
}

// Do runs fn until it returns nil, up to p.Attempts times, waiting between
// attempts according to the policy's schedule. Returns nil on the first
// success, the context error if cancelled while waiting, and otherwise the
// last error once all attempts are spent.
func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	if p.Attempts < 1 {
		return fmt.Errorf("retry policy must allow at least one attempt")
	}

	var err error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}

		if attempt == p.Attempts-1 {
			break
		}

		select {
		case <-time.After(p.Schedule(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", p.Attempts, err)
}
