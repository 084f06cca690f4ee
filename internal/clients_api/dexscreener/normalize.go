package dexscreener

import (
	"fmt"
	"strings"
	"time"

	"crypto-tracker/internal/domain"
	"crypto-tracker/internal/features/normalize"
)

const (
	candidateMinCap = 1_000
	candidateMaxCap = 5_000_000
	candidateMaxAge = 7 * 24 * time.Hour
)

var launchKeywords = []string{"pump", "moon", "gem", "degen", "pepe", "wojak", "chad", "based"}

// normalizePair applies the pre-filter to a pair and maps it. extra are profile
// links that fill slots the pair's own info left empty.
func (a *Adapter) normalizePair(p Pair, extra []Link, now time.Time) normalize.Result {
	base := p.BaseToken
	unit := strings.TrimSpace(base.Address)
	if unit == "" {
		unit = "pair"
	}

	if strings.TrimSpace(base.Address) == "" || strings.TrimSpace(base.Name) == "" ||
		strings.TrimSpace(base.Symbol) == "" || p.PairCreatedAt.Float() <= 0 {
		return normalize.Skipped(unit, domain.SkipMissingFields, "baseToken address, name, symbol and pairCreatedAt are required")
	}
	if !p.MarketCap.Valid {
		return normalize.Skipped(unit, domain.SkipNoMarketCap, "")
	}

	created := normalize.FromMillis(p.PairCreatedAt.Float())
	if !a.window.Contains(created, now) {
		return normalize.Skipped(unit, domain.SkipAgeWindow, fmt.Sprintf("age %s", now.Sub(time.Unix(created, 0)).Round(time.Second)))
	}

	rec := domain.TokenRecord{
		Address:           strings.TrimSpace(base.Address),
		Chain:             chainOf(p.ChainID),
		Name:              strings.TrimSpace(base.Name),
		Symbol:            strings.TrimSpace(base.Symbol),
		MarketCapUSD:      p.MarketCap.NonNegative(),
		PriceUSD:          p.PriceUSD.NonNegative(),
		LiquidityUSD:      p.Liquidity.USD.NonNegative(),
		Volume24hUSD:      p.Volume.H24.NonNegative(),
		PriceChange24hPct: p.PriceChange.H24.Float(),
		CreatedAt:         created,
		Source:            domain.SourcePrimary,
		DexID:             strings.TrimSpace(p.DexID),
		PairURL:           strings.TrimSpace(p.URL),
	}
	rec.Socials = socialsOf(p.Info, extra)
	rec.IsCandidate = isCandidate(rec, now)
	return normalize.Ok(rec)
}

func chainOf(chainID string) string {
	chain := strings.ToLower(strings.TrimSpace(chainID))
	if chain == "" {
		return "unknown"
	}
	return chain
}

func socialsOf(info *PairInfo, extra []Link) domain.SocialLinks {
	var s domain.SocialLinks
	if info != nil {
		for _, w := range info.Websites {
			normalize.AddLink(&s, "", w.URL)
		}
		for _, l := range info.Socials {
			normalize.AddLink(&s, l.Type, l.URL)
		}
	}
	for _, l := range extra {
		normalize.AddLink(&s, l.Type, l.URL)
	}
	return s
}

// isCandidate flags pairs that look like fresh launchpad tokens.
// The criteria filter relaxes its bounds for them.
func isCandidate(rec domain.TokenRecord, now time.Time) bool {
	if rec.Chain != "solana" {
		return false
	}
	if rec.MarketCapUSD < candidateMinCap || rec.MarketCapUSD > candidateMaxCap {
		return false
	}
	if rec.CreatedAt > 0 && rec.Age(now) <= candidateMaxAge {
		return true
	}

	dex := strings.ToLower(rec.DexID)
	if strings.Contains(dex, "raydium") || strings.Contains(dex, "pump") {
		return true
	}

	name, symbol := strings.ToLower(rec.Name), strings.ToLower(rec.Symbol)
	for _, kw := range launchKeywords {
		if strings.Contains(name, kw) || strings.Contains(symbol, kw) {
			return true
		}
	}
	return false
}
