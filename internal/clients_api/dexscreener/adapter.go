package dexscreener

// Primary source adapter for the DexScreener aggregator.
// Pair-shaped items map directly; profile-shaped items are enriched with a
// tokens lookup first because profiles carry no market data.

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"crypto-tracker/internal/clients_api/marketdata"
	"crypto-tracker/internal/domain"
	"crypto-tracker/internal/features/normalize"
	"crypto-tracker/internal/infra/log"
	"crypto-tracker/internal/infra/pacing"

	"go.uber.org/zap"
)

const (
	Name = "dexscreener"

	DefaultTokensURL   = "https://api.dexscreener.com/latest/dex/tokens/"
	DefaultMaxLookups  = 30
	lookupSpacing      = 100 * time.Millisecond
	minLookupLiquidity = 100
)

type Config struct {
	marketdata.Settings

	// TokensURL is the lookup base; the token address is appended.
	TokensURL  string
	MaxLookups int
	// LookupSpacer gates profile lookups. Nil means a fixed 100ms gap.
	LookupSpacer pacing.Spacer

	MinAge time.Duration
	MaxAge time.Duration
	Now    func() time.Time
}

type Adapter struct {
	client       *marketdata.Client
	endpoints    []string
	policy       marketdata.Policy
	tokensURL    string
	maxLookups   int
	lookupSpacer pacing.Spacer
	window       normalize.AgeWindow
	now          func() time.Time
}

func NewAdapter(cfg Config) *Adapter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TokensURL == "" {
		cfg.TokensURL = DefaultTokensURL
	}
	if cfg.MaxLookups <= 0 {
		cfg.MaxLookups = DefaultMaxLookups
	}
	if cfg.LookupSpacer == nil {
		cfg.LookupSpacer = pacing.NewSpacer(lookupSpacing)
	}

	return &Adapter{
		client:       cfg.Settings.NewClientFor("DexScreenerAPI", nil),
		endpoints:    cfg.Endpoints,
		policy:       cfg.Settings.Policy(),
		tokensURL:    cfg.TokensURL,
		maxLookups:   cfg.MaxLookups,
		lookupSpacer: cfg.LookupSpacer,
		window:       normalize.AgeWindow{Min: cfg.MinAge, Max: cfg.MaxAge},
		now:          cfg.Now,
	}
}

func (a *Adapter) Name() string { return Name }

func (a *Adapter) Source() domain.Source { return domain.SourcePrimary }

// Fetch walks the endpoint list and returns the first non-empty batch, newest first.
func (a *Adapter) Fetch(ctx context.Context) domain.FetchReport {
	lookups := &lookupBudget{left: a.maxLookups, cache: map[string]*Pair{}}
	return a.client.FirstNonEmpty(ctx, domain.SourcePrimary, a.endpoints, a.policy,
		func(ctx context.Context, body []byte) ([]normalize.Result, error) {
			return a.parse(ctx, body, lookups)
		})
}

// lookupBudget caps profile lookups for one Fetch and remembers their answers.
type lookupBudget struct {
	left  int
	cache map[string]*Pair
}

func (a *Adapter) parse(ctx context.Context, body []byte, lookups *lookupBudget) ([]normalize.Result, error) {
	payload, err := normalize.ResolveShape(body, ListFields...)
	if err != nil {
		return nil, err
	}

	now := a.now()
	results := make([]normalize.Result, 0, len(payload.Items))
	var pairs, profiles int
	for _, item := range payload.Items {
		if ctx.Err() != nil {
			break
		}
		raw := item
		results = append(results, normalize.Guard("item", func() normalize.Result {
			var p probe
			if err := json.Unmarshal(raw, &p); err != nil {
				return normalize.Skipped("item", domain.SkipMalformed, err.Error())
			}
			switch {
			case p.BaseToken != nil:
				pairs++
				return a.fromPair(raw, now)
			case strings.TrimSpace(p.TokenAddress) != "":
				profiles++
				return a.fromProfile(ctx, raw, now, lookups)
			default:
				return normalize.Skipped("item", domain.SkipMissingFields, "neither baseToken nor tokenAddress")
			}
		}))
	}

	log.LogDebug("DexScreener payload resolved",
		zap.String("shape", payload.Kind.String()),
		zap.String("field", payload.Field),
		zap.Int("items", len(payload.Items)),
		zap.Int("pairs", pairs),
		zap.Int("profiles", profiles))
	return results, nil
}

func (a *Adapter) fromPair(raw json.RawMessage, now time.Time) normalize.Result {
	var p Pair
	if err := json.Unmarshal(raw, &p); err != nil {
		return normalize.Skipped("pair", domain.SkipMalformed, err.Error())
	}
	return a.normalizePair(p, nil, now)
}

func (a *Adapter) fromProfile(ctx context.Context, raw json.RawMessage, now time.Time, lookups *lookupBudget) normalize.Result {
	var prof Profile
	if err := json.Unmarshal(raw, &prof); err != nil {
		return normalize.Skipped("profile", domain.SkipMalformed, err.Error())
	}
	address := strings.TrimSpace(prof.TokenAddress)

	pair, ok := lookups.cache[address]
	if !ok {
		if lookups.left <= 0 {
			return normalize.Skipped(address, domain.SkipNoPair, "lookup budget exhausted")
		}
		lookups.left--
		pair = a.lookupPair(ctx, address)
		lookups.cache[address] = pair
	}
	if pair == nil {
		return normalize.Skipped(address, domain.SkipNoPair, "no usable pair data")
	}

	p := *pair
	if p.ChainID == "" {
		p.ChainID = prof.ChainID
	}
	return a.normalizePair(p, prof.Links, now)
}

// lookupPair asks the tokens endpoint for address and returns its most liquid
// pair, or nil when nothing trustworthy came back.
func (a *Adapter) lookupPair(ctx context.Context, address string) *Pair {
	if err := a.lookupSpacer.Wait(ctx); err != nil {
		return nil
	}

	body, err := a.client.Get(ctx, a.tokensURL+address)
	if err != nil {
		log.LogDebug("DexScreener token lookup failed", zap.String("token", address), zap.Error(err))
		return nil
	}

	payload, err := normalize.ResolveShape(body, "pairs")
	if err != nil {
		log.LogDebug("DexScreener token lookup malformed", zap.String("token", address), zap.Error(err))
		return nil
	}

	var best *Pair
	for _, item := range payload.Items {
		var p Pair
		if err := json.Unmarshal(item, &p); err != nil {
			continue
		}
		if !sameAddress(p.BaseToken.Address, address) {
			continue
		}
		if best == nil || p.Liquidity.USD.Float() > best.Liquidity.USD.Float() {
			best = &p
		}
	}

	if best == nil || !best.PriceUSD.Valid || best.Liquidity.USD.Float() <= minLookupLiquidity {
		return nil
	}
	return best
}

// sameAddress compares EVM hex addresses case-insensitively; base58 is case-sensitive.
func sameAddress(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if strings.HasPrefix(a, "0x") || strings.HasPrefix(a, "0X") {
		return strings.EqualFold(a, b)
	}
	return a == b
}
