package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var ErrMissingCredentials = errors.New("telegram_token and chat_id are required")

// Validate rejects option sets the scanner cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.MinMarketCap < 0 || c.MaxMarketCap < 0 {
		errs = append(errs, fmt.Errorf("market cap bounds must not be negative"))
	}
	if c.MinMarketCap >= c.MaxMarketCap {
		errs = append(errs, fmt.Errorf("min_market_cap (%g) must be below max_market_cap (%g)", c.MinMarketCap, c.MaxMarketCap))
	}
	if c.MinAgeSeconds < 0 {
		errs = append(errs, fmt.Errorf("min_age_seconds must not be negative"))
	}
	if c.MinAgeSeconds >= c.MaxAgeSeconds {
		errs = append(errs, fmt.Errorf("min_age_seconds (%d) must be below max_age_seconds (%d)", c.MinAgeSeconds, c.MaxAgeSeconds))
	}
	if c.MinLiquidity < 0 {
		errs = append(errs, fmt.Errorf("min_liquidity must not be negative"))
	}
	if c.ScanIntervalMinutes < 1 {
		errs = append(errs, fmt.Errorf("scan_interval_minutes must be at least 1"))
	}
	if c.MaxTokensPerScan < 1 {
		errs = append(errs, fmt.Errorf("max_tokens_per_scan must be at least 1"))
	}
	if c.DuplicateCheckHours <= 0 {
		errs = append(errs, fmt.Errorf("duplicate_check_hours must be positive"))
	}
	if c.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("max_retries must be at least 1"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be positive"))
	}
	if c.RateLimitDelay < 0 || c.RetryDelay < 0 || c.MessageDelay < 0 {
		errs = append(errs, fmt.Errorf("delays must not be negative"))
	}
	if c.MaxResponseSize <= 0 {
		errs = append(errs, fmt.Errorf("max_response_size must be positive"))
	}
	if c.SolUSDPrice <= 0 {
		errs = append(errs, fmt.Errorf("sol_usd_price must be positive"))
	}
	if len(c.DexScreenerEndpoints) == 0 && len(c.PumpFunEndpoints) == 0 {
		errs = append(errs, fmt.Errorf("at least one provider endpoint is required"))
	}
	for _, raw := range append(append([]string{}, c.DexScreenerEndpoints...), c.PumpFunEndpoints...) {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid endpoint url %q", raw))
		}
	}

	return errors.Join(errs...)
}

// ValidateCredentials checks the telegram pair. Dry runs skip it.
func (c *Config) ValidateCredentials() error {
	if strings.TrimSpace(c.TelegramToken) == "" || strings.TrimSpace(c.ChatID) == "" {
		return ErrMissingCredentials
	}
	if strings.HasPrefix(c.ChatID, "@") {
		return nil
	}
	if _, err := strconv.ParseInt(c.ChatID, 10, 64); err != nil {
		return fmt.Errorf("chat_id must be a numeric id or @channel name: %q", c.ChatID)
	}
	return nil
}
