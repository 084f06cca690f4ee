package commands

// Builds the scan pipeline from the loaded config.

import (
	"fmt"

	"crypto-tracker/bots_monitor"
	"crypto-tracker/internal/clients_api/dexscreener"
	"crypto-tracker/internal/clients_api/marketdata"
	"crypto-tracker/internal/clients_api/pumpfun"
	"crypto-tracker/internal/features/criteria"
	"crypto-tracker/internal/features/dedup"
	"crypto-tracker/internal/features/scan"
	"crypto-tracker/internal/infra/config"
	"crypto-tracker/internal/infra/metrics"
	"crypto-tracker/internal/infra/pacing"
)

type app struct {
	pipeline   *scan.Pipeline
	dispatcher *bots_monitor.Dispatcher
	ledger     *dedup.Ledger
	metrics    *metrics.Registry
}

func (a *app) Close() {
	if a.ledger != nil {
		_ = a.ledger.Close()
	}
}

// buildSources returns the adapters in priority order: DexScreener first, pump.fun second.
func buildSources(cfg *config.Config) []scan.Source {
	settings := func(endpoints []string) marketdata.Settings {
		return marketdata.Settings{
			Endpoints:       endpoints,
			MaxAttempts:     cfg.MaxRetries,
			RetryDelay:      cfg.AttemptDelay(),
			EndpointDelay:   cfg.EndpointDelay(),
			Timeout:         cfg.Timeout(),
			MaxResponseSize: cfg.MaxResponseSize,
		}
	}
	minAge := secondsDuration(cfg.MinAgeSeconds)
	maxAge := secondsDuration(cfg.MaxAgeSeconds)

	var sources []scan.Source
	if len(cfg.DexScreenerEndpoints) > 0 {
		sources = append(sources, dexscreener.NewAdapter(dexscreener.Config{
			Settings:   settings(cfg.DexScreenerEndpoints),
			TokensURL:  cfg.DexScreenerTokensURL,
			MaxLookups: cfg.MaxProfileLookups,
			MinAge:     minAge,
			MaxAge:     maxAge,
		}))
	}
	if len(cfg.PumpFunEndpoints) > 0 {
		sources = append(sources, pumpfun.NewAdapter(pumpfun.Config{
			Settings:    settings(cfg.PumpFunEndpoints),
			MinAge:      minAge,
			MaxAge:      maxAge,
			SolUSDPrice: cfg.SolUSDPrice,
		}))
	}
	return sources
}

func thresholds(cfg *config.Config) criteria.Thresholds {
	return criteria.Thresholds{
		MinMarketCap:    cfg.MinMarketCap,
		MaxMarketCap:    cfg.MaxMarketCap,
		MinAge:          secondsDuration(cfg.MinAgeSeconds),
		MaxAge:          secondsDuration(cfg.MaxAgeSeconds),
		MinLiquidity:    cfg.MinLiquidity,
		RequireTelegram: cfg.RequireTelegram,
	}
}

// buildApp wires sources, ledger, filter and dispatcher around sender.
func buildApp(cfg *config.Config, sender bots_monitor.Sender, chatID string, spacing bool) (*app, error) {
	ledger, err := dedup.NewLedger(cfg.DuplicateWindow())
	if err != nil {
		return nil, fmt.Errorf("failed to open notification ledger: %w", err)
	}

	spacer := pacing.Noop()
	if spacing {
		spacer = pacing.NewSpacer(cfg.MessageSpacing())
	}

	dispatcher, err := bots_monitor.NewDispatcher(bots_monitor.DispatcherConfig{
		Sender: sender,
		ChatID: chatID,
		Ledger: ledger,
		Spacer: spacer,
	})
	if err != nil {
		_ = ledger.Close()
		return nil, err
	}

	reg := metrics.NewRegistry()
	pipeline := scan.NewPipeline(scan.Options{
		Sources:     buildSources(cfg),
		Ledger:      ledger,
		Filter:      criteria.New(thresholds(cfg)),
		Notifier:    dispatcher,
		MaxPerCycle: cfg.MaxTokensPerScan,
		Metrics:     reg,
	})

	return &app{pipeline: pipeline, dispatcher: dispatcher, ledger: ledger, metrics: reg}, nil
}
