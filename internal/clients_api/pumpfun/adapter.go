package pumpfun

// Fallback source adapter for the pump.fun frontend API.

import (
	"context"
	"time"

	"crypto-tracker/internal/clients_api/marketdata"
	"crypto-tracker/internal/domain"
	"crypto-tracker/internal/features/normalize"
	"crypto-tracker/internal/infra/log"

	"go.uber.org/zap"
)

const Name = "pumpfun"

type Config struct {
	marketdata.Settings

	MinAge time.Duration
	MaxAge time.Duration
	// SolUSDPrice is a static SOL/USD rate for the reserve-based liquidity estimate.
	SolUSDPrice float64
	Now         func() time.Time
}

type Adapter struct {
	client      *marketdata.Client
	endpoints   []string
	policy      marketdata.Policy
	window      normalize.AgeWindow
	solUSDPrice float64
	now         func() time.Time
}

func NewAdapter(cfg Config) *Adapter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.SolUSDPrice <= 0 {
		cfg.SolUSDPrice = 100
	}

	log.LogInfo("pump.fun liquidity is estimated from virtual SOL reserves at a static price",
		zap.Float64("sol_usd_price", cfg.SolUSDPrice))

	return &Adapter{
		client: cfg.Settings.NewClientFor("PumpFunAPI", map[string]string{
			"Referer": "https://pump.fun/",
			"Origin":  "https://pump.fun",
		}),
		endpoints:   cfg.Endpoints,
		policy:      cfg.Settings.Policy(),
		window:      normalize.AgeWindow{Min: cfg.MinAge, Max: cfg.MaxAge},
		solUSDPrice: cfg.SolUSDPrice,
		now:         cfg.Now,
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Source() domain.Source { return domain.SourceFallback }

// Fetch walks the endpoint list and returns the first non-empty batch, newest first.
func (a *Adapter) Fetch(ctx context.Context) domain.FetchReport {
	return a.client.FirstNonEmpty(ctx, domain.SourceFallback, a.endpoints, a.policy, a.parse)
}

func (a *Adapter) parse(_ context.Context, body []byte) ([]normalize.Result, error) {
	payload, err := normalize.ResolveShape(body, ListFields...)
	if err != nil {
		return nil, err
	}

	now := a.now()
	results := make([]normalize.Result, 0, len(payload.Items))
	for _, item := range payload.Items {
		raw := item
		results = append(results, normalize.Guard("coin", func() normalize.Result {
			return a.normalizeItem(raw, now)
		}))
	}

	log.LogDebug("pump.fun payload resolved",
		zap.String("shape", payload.Kind.String()),
		zap.String("field", payload.Field),
		zap.Int("items", len(payload.Items)))
	return results, nil
}
