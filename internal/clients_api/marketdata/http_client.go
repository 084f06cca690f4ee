package marketdata

// Shared GET transport for the market-data providers.
// Knows nothing about token payloads: it fetches bytes, classifies failures and logs.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"crypto-tracker/internal/infra/log"
	"crypto-tracker/internal/infra/retry"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const defaultMaxResponseSize = 10 * 1024 * 1024

var ErrResponseTooLarge = errors.New("response exceeds size limit")

type Options struct {
	Name            string
	Timeout         time.Duration
	MaxResponseSize int64
	Headers         map[string]string
	// HTTPClient overrides the default transport (tests).
	HTTPClient *http.Client
}

type Client struct {
	name            string
	httpClient      *http.Client
	circuitBreaker  *gobreaker.CircuitBreaker
	maxResponseSize int64
	headers         map[string]string
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxResponseSize <= 0 {
		opts.MaxResponseSize = defaultMaxResponseSize
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DisableKeepAlives: false,
				MaxIdleConns:      10,
				IdleConnTimeout:   90 * time.Second,
			},
		}
	}

	name := opts.Name
	circuitBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.LogWarn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Client{
		name:            name,
		httpClient:      httpClient,
		circuitBreaker:  circuitBreaker,
		maxResponseSize: opts.MaxResponseSize,
		headers:         opts.Headers,
	}
}

// isSuccessful keeps client errors and cancellations from tripping the breaker.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var he *retry.HTTPError
	if errors.As(err, &he) {
		return he.StatusCode < 500
	}
	return false
}

// Name is the breaker name, also used as the log label.
func (c *Client) Name() string { return c.name }

// BreakerState exposes the breaker state for logs and tests.
func (c *Client) BreakerState() gobreaker.State { return c.circuitBreaker.State() }

// Get fetches url and returns the body of a 2xx response.
// Non-2xx answers come back as *retry.HTTPError; an open breaker or an
// oversized body is wrapped with retry.Stop.
// A cancelled ctx stops new requests; one already in flight runs to completion
// or to the client timeout.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	}
	ctx = context.WithoutCancel(ctx)

	requestID := log.GenerateRequestID()
	startTime := time.Now()

	body, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.doGET(ctx, requestID, url, startTime)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.LogWarn("Circuit breaker rejected request",
				zap.String("request_id", requestID),
				zap.String("breaker", c.name),
				zap.String("endpoint", url))
			return nil, retry.Stop(fmt.Errorf("%s: %w", c.name, err))
		}
		return nil, err
	}

	return body.([]byte), nil
}

func (c *Client) doGET(ctx context.Context, requestID, url string, startTime time.Time) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Stop(fmt.Errorf("failed to create request: %w", err))
	}
	c.setHeaders(req)

	log.LogRequest(requestID, http.MethodGet, url, zap.String("source", c.name))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.LogResponse(requestID, 0, time.Since(startTime).Milliseconds(), zap.String("endpoint", url), zap.Error(err))
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	duration := time.Since(startTime).Milliseconds()
	if err != nil {
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("endpoint", url), zap.Error(err))
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("endpoint", url), zap.String("error", "API error response received"))
		if len(respBody) > 512 {
			respBody = respBody[:512]
		}
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Body: respBody}
	}

	if int64(len(respBody)) > c.maxResponseSize {
		log.LogResponse(requestID, resp.StatusCode, duration, zap.String("endpoint", url), zap.String("error", "response too large"))
		return nil, retry.Stop(fmt.Errorf("%w (%d bytes)", ErrResponseTooLarge, c.maxResponseSize))
	}

	log.LogResponse(requestID, resp.StatusCode, duration, zap.String("endpoint", url), zap.Int("bytes", len(respBody)))
	return respBody, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}
