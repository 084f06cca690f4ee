package retry

// Fixed-delay retry for upstream market-data calls.
// Only transport-level failures are retried. Any HTTP status response ends the
// attempt loop for that endpoint, 503 being reported as provider maintenance.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

type Options struct {
	MaxAttempts int
	Delay       time.Duration
	// Sleep defaults to a context-aware timer. Tests swap it for a no-op.
	Sleep func(ctx context.Context, d time.Duration) error
}

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error: <nil>"
	}
	if len(e.Body) == 0 {
		return fmt.Sprintf("http error (%d)", e.StatusCode)
	}
	body := e.Body
	if len(body) > 256 {
		body = body[:256]
	}
	return fmt.Sprintf("http error (%d): %s", e.StatusCode, string(body))
}

// IsMaintenance reports whether err is the provider's "service overloaded" answer.
func IsMaintenance(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == http.StatusServiceUnavailable
}

type stopError struct{ err error }

func (e *stopError) Error() string { return e.err.Error() }
func (e *stopError) Unwrap() error { return e.err }

// Stop marks err as final so Do returns it without another attempt.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &stopError{err: err}
}

// IsRetryable is true only for network-level failures, client timeouts included.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return false
	}
	var se *stopError
	return !errors.As(err, &se)
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, or MaxAttempts is used up.
// fn receives the 1-based attempt number.
func Do(ctx context.Context, opts Options, fn func(attempt int) error) error {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Sleep == nil {
		opts.Sleep = SleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == opts.MaxAttempts || ctx.Err() != nil {
			return lastErr
		}

		if err := opts.Sleep(ctx, opts.Delay); err != nil {
			return lastErr
		}
	}

	return lastErr
}
