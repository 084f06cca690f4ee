package domain

import "fmt"

// SkipReason explains why one unit (token or endpoint) produced nothing.
type SkipReason string

const (
	SkipMissingFields SkipReason = "missing_fields"
	SkipNoMarketCap   SkipReason = "no_market_cap"
	SkipAgeWindow     SkipReason = "age_window"
	SkipMalformed     SkipReason = "malformed"
	SkipNoPair        SkipReason = "no_pair"
	SkipPanic         SkipReason = "panic"
)

type Skip struct {
	Unit   string     `json:"unit"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

func (s Skip) String() string {
	if s.Detail == "" {
		return fmt.Sprintf("%s: %s", s.Unit, s.Reason)
	}
	return fmt.Sprintf("%s: %s (%s)", s.Unit, s.Reason, s.Detail)
}

// EndpointOutcome classifies how an endpoint attempt ended.
type EndpointOutcome string

const (
	OutcomeOK          EndpointOutcome = "ok"
	OutcomeEmpty       EndpointOutcome = "empty"
	OutcomeMaintenance EndpointOutcome = "maintenance"
	OutcomeHTTPError   EndpointOutcome = "http_error"
	OutcomeNetwork     EndpointOutcome = "network"
	OutcomeMalformed   EndpointOutcome = "malformed"
	OutcomeBreakerOpen EndpointOutcome = "breaker_open"
	OutcomeCancelled   EndpointOutcome = "cancelled"
)

type EndpointAttempt struct {
	URL      string          `json:"url"`
	Outcome  EndpointOutcome `json:"outcome"`
	Attempts int             `json:"attempts"`
	Tokens   int             `json:"tokens"`
	Err      string          `json:"error,omitempty"`
}

// FetchReport is what a source adapter returns. Tokens is empty, never nil-with-error,
// when every endpoint failed.
type FetchReport struct {
	Source    Source            `json:"source"`
	Endpoint  string            `json:"endpoint,omitempty"`
	Tokens    []TokenRecord     `json:"tokens"`
	Skips     []Skip            `json:"skips,omitempty"`
	Endpoints []EndpointAttempt `json:"endpoints"`
}
