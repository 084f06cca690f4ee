package marketdata

import (
	"context"
	"net/http"
	"time"

	"crypto-tracker/internal/infra/pacing"
)

// Settings are the transport and endpoint-walk options every adapter shares.
type Settings struct {
	Endpoints       []string
	MaxAttempts     int
	RetryDelay      time.Duration
	EndpointDelay   time.Duration
	Timeout         time.Duration
	MaxResponseSize int64

	// Test hooks. Nil means real network, real timers.
	HTTPClient *http.Client
	Sleep      func(ctx context.Context, d time.Duration) error
	Spacer     pacing.Spacer
}

// NewClientFor builds the transport for an adapter named name.
func (s Settings) NewClientFor(name string, headers map[string]string) *Client {
	return NewClient(Options{
		Name:            name,
		Timeout:         s.Timeout,
		MaxResponseSize: s.MaxResponseSize,
		Headers:         headers,
		HTTPClient:      s.HTTPClient,
	})
}

// Policy derives the endpoint-walk policy. The spacer is created once per adapter
// so the gap holds across cycles too.
func (s Settings) Policy() Policy {
	spacer := s.Spacer
	if spacer == nil {
		spacer = pacing.NewSpacer(s.EndpointDelay)
	}
	return Policy{
		MaxAttempts: s.MaxAttempts,
		RetryDelay:  s.RetryDelay,
		Sleep:       s.Sleep,
		Spacer:      spacer,
	}
}
