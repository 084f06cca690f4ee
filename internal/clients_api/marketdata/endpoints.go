package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crypto-tracker/internal/domain"
	"crypto-tracker/internal/features/normalize"
	"crypto-tracker/internal/infra/log"
	"crypto-tracker/internal/infra/pacing"
	"crypto-tracker/internal/infra/retry"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Policy controls how an adapter walks its endpoint list.
type Policy struct {
	MaxAttempts int
	RetryDelay  time.Duration
	// Sleep replaces the retry wait (tests). Nil uses a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// Spacer gates every endpoint request, including retries of the same endpoint.
	Spacer pacing.Spacer
	Limit  int
}

// ParseFunc turns one endpoint body into per-item results. Returning an error
// marks the whole response as malformed.
type ParseFunc func(ctx context.Context, body []byte) ([]normalize.Result, error)

// FirstNonEmpty tries endpoints in order and stops at the first one that yields
// at least one token. It never fails: an exhausted list gives an empty report.
func (c *Client) FirstNonEmpty(ctx context.Context, source domain.Source, endpoints []string, policy Policy, parse ParseFunc) domain.FetchReport {
	report := domain.FetchReport{Source: source, Tokens: []domain.TokenRecord{}}
	if policy.Spacer == nil {
		policy.Spacer = pacing.Noop()
	}
	if policy.Limit <= 0 {
		policy.Limit = normalize.MaxTokensPerSource
	}

	for _, endpoint := range endpoints {
		if ctx.Err() != nil {
			break
		}

		attempt, tokens, skips := c.tryEndpoint(ctx, endpoint, policy, parse)
		report.Endpoints = append(report.Endpoints, attempt)
		report.Skips = append(report.Skips, skips...)

		fields := []zap.Field{
			zap.String("source", string(source)),
			zap.String("endpoint", endpoint),
			zap.String("outcome", string(attempt.Outcome)),
			zap.Int("attempts", attempt.Attempts),
			zap.Int("tokens", len(tokens)),
			zap.Int("skipped", len(skips)),
		}
		switch attempt.Outcome {
		case domain.OutcomeOK:
			log.LogInfo("Endpoint returned tokens", fields...)
		case domain.OutcomeEmpty:
			log.LogDebug("Endpoint returned no usable tokens", fields...)
		case domain.OutcomeCancelled:
			log.LogDebug("Endpoint fetch cancelled", fields...)
		default:
			log.LogWarn("Endpoint failed, moving on", append(fields, zap.String("error", attempt.Err))...)
		}

		if len(tokens) > 0 {
			report.Endpoint = endpoint
			report.Tokens = normalize.NewestFirst(tokens, policy.Limit)
			return report
		}
	}

	if report.Endpoint == "" && len(endpoints) > 0 {
		log.LogWarn("All endpoints exhausted", zap.String("source", string(source)), zap.Int("endpoints", len(endpoints)))
	}
	return report
}

func (c *Client) tryEndpoint(ctx context.Context, endpoint string, policy Policy, parse ParseFunc) (attempt domain.EndpointAttempt, tokens []domain.TokenRecord, skips []domain.Skip) {
	attempt = domain.EndpointAttempt{URL: endpoint}

	defer func() {
		if r := recover(); r != nil {
			attempt.Outcome = domain.OutcomeMalformed
			attempt.Err = fmt.Sprintf("panic: %v", r)
			tokens = nil
		}
	}()

	var body []byte
	err := retry.Do(ctx, retry.Options{MaxAttempts: policy.MaxAttempts, Delay: policy.RetryDelay, Sleep: policy.Sleep}, func(n int) error {
		attempt.Attempts = n
		if err := policy.Spacer.Wait(ctx); err != nil {
			return err
		}
		b, err := c.Get(ctx, endpoint)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		attempt.Outcome = classify(ctx, err)
		attempt.Err = err.Error()
		return attempt, nil, nil
	}

	results, err := parse(ctx, body)
	if err != nil {
		attempt.Outcome = domain.OutcomeMalformed
		attempt.Err = err.Error()
		return attempt, nil, nil
	}

	for _, res := range results {
		if res.OK() {
			tokens = append(tokens, res.Record)
		} else {
			skips = append(skips, *res.Skip)
		}
	}

	attempt.Tokens = len(tokens)
	attempt.Outcome = domain.OutcomeOK
	if len(tokens) == 0 {
		attempt.Outcome = domain.OutcomeEmpty
	}
	return attempt, tokens, skips
}

func classify(ctx context.Context, err error) domain.EndpointOutcome {
	var he *retry.HTTPError
	switch {
	case ctx.Err() != nil:
		return domain.OutcomeCancelled
	case retry.IsMaintenance(err):
		return domain.OutcomeMaintenance
	case errors.As(err, &he):
		return domain.OutcomeHTTPError
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return domain.OutcomeBreakerOpen
	case errors.Is(err, ErrResponseTooLarge):
		return domain.OutcomeMalformed
	default:
		return domain.OutcomeNetwork
	}
}
