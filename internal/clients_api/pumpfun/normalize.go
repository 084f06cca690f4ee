package pumpfun

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"crypto-tracker/internal/domain"
	"crypto-tracker/internal/features/normalize"
)

const (
	lamportsPerSOL = 1e9
	tokenDecimals  = 1e6
	// Reserves above this are lamports; below it the API already returned SOL.
	lamportsThreshold = 1e6
)

// normalizeItem applies the pre-filter and maps one raw coin.
func (a *Adapter) normalizeItem(raw json.RawMessage, now time.Time) normalize.Result {
	var coin Coin
	if err := json.Unmarshal(raw, &coin); err != nil {
		return normalize.Skipped("coin", domain.SkipMalformed, err.Error())
	}

	unit := coin.Mint
	if unit == "" {
		unit = "coin"
	}

	if strings.TrimSpace(coin.Mint) == "" || strings.TrimSpace(coin.Name) == "" ||
		strings.TrimSpace(coin.Symbol) == "" || coin.CreatedTimestamp.Float() <= 0 {
		return normalize.Skipped(unit, domain.SkipMissingFields, "mint, name, symbol and created_timestamp are required")
	}
	if !coin.MarketCap.Valid && !coin.USDMarketCap.Valid {
		return normalize.Skipped(unit, domain.SkipNoMarketCap, "")
	}

	created := normalize.FromSeconds(coin.CreatedTimestamp.Float())
	if !a.window.Contains(created, now) {
		return normalize.Skipped(unit, domain.SkipAgeWindow, fmt.Sprintf("age %s", now.Sub(time.Unix(created, 0)).Round(time.Second)))
	}

	return normalize.Ok(a.toRecord(coin, created))
}

func (a *Adapter) toRecord(coin Coin, created int64) domain.TokenRecord {
	marketCap := coin.USDMarketCap.NonNegative()
	if marketCap == 0 {
		marketCap = coin.MarketCap.NonNegative()
	}

	var price float64
	if supply := coin.TotalSupply.NonNegative(); supply > 0 && coin.USDMarketCap.NonNegative() > 0 {
		price = coin.USDMarketCap.Value / (supply / tokenDecimals)
	}

	rec := domain.TokenRecord{
		Address:      strings.TrimSpace(coin.Mint),
		Chain:        "solana",
		Name:         strings.TrimSpace(coin.Name),
		Symbol:       strings.TrimSpace(coin.Symbol),
		MarketCapUSD: marketCap,
		PriceUSD:     price,
		LiquidityUSD: a.estimateLiquidity(coin.VirtualSolReserves),
		Volume24hUSD: coin.Volume24h.NonNegative(),
		CreatedAt:    created,
		Source:       domain.SourceFallback,
		IsCandidate:  !coin.Complete,
		DexID:        "pumpfun",
		PairURL:      "https://pump.fun/coin/" + strings.TrimSpace(coin.Mint),
	}
	if coin.Complete {
		rec.DexID = "raydium"
	}

	normalize.AddLink(&rec.Socials, "website", coin.Website)
	normalize.AddLink(&rec.Socials, "telegram", coin.Telegram)
	normalize.AddLink(&rec.Socials, "twitter", coin.Twitter)
	return rec
}

// estimateLiquidity prices the bonding-curve SOL reserves at the configured SOL/USD rate.
func (a *Adapter) estimateLiquidity(reserves normalize.Number) float64 {
	sol := reserves.NonNegative()
	if sol == 0 {
		return 0
	}
	if sol > lamportsThreshold {
		sol /= lamportsPerSOL
	}
	return sol * a.solUSDPrice
}
