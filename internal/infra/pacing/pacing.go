package pacing

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Spacer enforces a minimum gap between consecutive calls.
type Spacer interface {
	Wait(ctx context.Context) error
}

type limiterSpacer struct {
	limiter *rate.Limiter
}

// NewSpacer lets the first call through immediately and spaces the rest by at least interval.
// A non-positive interval disables spacing.
func NewSpacer(interval time.Duration) Spacer {
	if interval <= 0 {
		return Noop()
	}
	return &limiterSpacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (s *limiterSpacer) Wait(ctx context.Context) error {
	return s.limiter.Wait(ctx)
}

type noop struct{}

func (noop) Wait(ctx context.Context) error { return ctx.Err() }

// Noop never blocks.
func Noop() Spacer { return noop{} }
