package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(sleeps *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
}

func TestDoRetriesNetworkErrorsWithFixedDelay(t *testing.T) {
	var sleeps []time.Duration
	calls := 0
	err := Do(context.Background(), Options{MaxAttempts: 3, Delay: 5 * time.Second, Sleep: noSleep(&sleeps)}, func(int) error {
		calls++
		return errors.New("connection reset")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, sleeps)
}

func TestDoSucceedsAfterTransientFailure(t *testing.T) {
	var sleeps []time.Duration
	err := Do(context.Background(), Options{MaxAttempts: 3, Delay: time.Second, Sleep: noSleep(&sleeps)}, func(attempt int) error {
		if attempt == 1 {
			return errors.New("timeout")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, sleeps, 1)
}

func TestDoStopsOnHTTPStatus(t *testing.T) {
	for _, status := range []int{503, 404, 500} {
		t.Run(fmt.Sprint(status), func(t *testing.T) {
			calls := 0
			var sleeps []time.Duration
			err := Do(context.Background(), Options{MaxAttempts: 3, Sleep: noSleep(&sleeps)}, func(int) error {
				calls++
				return &HTTPError{StatusCode: status}
			})

			require.Error(t, err)
			assert.Equal(t, 1, calls)
			assert.Empty(t, sleeps)
			assert.Equal(t, status == 503, IsMaintenance(err))
		})
	}
}

func TestDoStopsOnStopWrapper(t *testing.T) {
	base := errors.New("bad json")
	calls := 0
	err := Do(context.Background(), Options{MaxAttempts: 3}, func(int) error {
		calls++
		return Stop(base)
	})

	assert.ErrorIs(t, err, base)
	assert.Equal(t, 1, calls)
}

func TestDoHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, Options{MaxAttempts: 3}, func(int) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(errors.New("dial tcp: refused")))
	assert.False(t, IsRetryable(fmt.Errorf("wrapped: %w", &HTTPError{StatusCode: 502})))
	assert.True(t, IsRetryable(fmt.Errorf("Client.Timeout exceeded: %w", context.DeadlineExceeded)))
	assert.False(t, IsRetryable(Stop(errors.New("x"))))
}

func TestHTTPErrorMessage(t *testing.T) {
	assert.Equal(t, "http error (503)", (&HTTPError{StatusCode: 503}).Error())
	assert.Equal(t, "http error (400): nope", (&HTTPError{StatusCode: 400, Body: []byte("nope")}).Error())
}
