package criteria

import (
	"math"
	"strings"
	"time"

	"crypto-tracker/internal/domain"
)

// Reason names the first gate a token failed.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonMissingIdentity Reason = "missing_identity"
	ReasonMarketCap       Reason = "market_cap"
	ReasonAge             Reason = "age"
	ReasonLiquidity       Reason = "liquidity"
	ReasonSocial          Reason = "social"
)

// Floor for the relaxed minimum market cap.
const candidateCapFloor = 1000

type Thresholds struct {
	MinMarketCap float64
	MaxMarketCap float64
	MinAge       time.Duration
	MaxAge       time.Duration
	MinLiquidity float64
	// RequireTelegram demands a telegram link; otherwise any social link will do.
	RequireTelegram bool
}

// Bounds are the numeric gates actually applied to one token.
type Bounds struct {
	MinMarketCap float64
	MaxMarketCap float64
	MinAge       time.Duration
	MaxAge       time.Duration
	MinLiquidity float64
}

type Verdict struct {
	Pass   bool
	Reason Reason
}

type Rejection struct {
	Key    string
	Reason Reason
}

type Filter struct {
	standard        Bounds
	relaxed         Bounds
	requireTelegram bool
}

func New(t Thresholds) *Filter {
	standard := Bounds{
		MinMarketCap: t.MinMarketCap,
		MaxMarketCap: t.MaxMarketCap,
		MinAge:       t.MinAge,
		MaxAge:       t.MaxAge,
		MinLiquidity: t.MinLiquidity,
	}
	return &Filter{
		standard: standard,
		relaxed: Bounds{
			MinMarketCap: math.Max(candidateCapFloor, t.MinMarketCap/10),
			MaxMarketCap: t.MaxMarketCap * 5,
			MinAge:       t.MinAge,
			MaxAge:       t.MaxAge * 7,
			MinLiquidity: t.MinLiquidity / 5,
		},
		requireTelegram: t.RequireTelegram,
	}
}

// BoundsFor returns the relaxed bounds for candidates and the configured ones otherwise.
func (f *Filter) BoundsFor(candidate bool) Bounds {
	if candidate {
		return f.relaxed
	}
	return f.standard
}

// Evaluate runs every gate in order. Zero market cap, liquidity or creation
// time means unknown and never rejects on that axis.
func (f *Filter) Evaluate(rec domain.TokenRecord, now time.Time) Verdict {
	if strings.TrimSpace(rec.Address) == "" || strings.TrimSpace(rec.Name) == "" || strings.TrimSpace(rec.Symbol) == "" {
		return reject(ReasonMissingIdentity)
	}

	b := f.BoundsFor(rec.IsCandidate)

	if mc := rec.MarketCapUSD; mc > 0 && (mc < b.MinMarketCap || mc > b.MaxMarketCap) {
		return reject(ReasonMarketCap)
	}

	if rec.CreatedAt > 0 {
		if age := rec.Age(now); age < b.MinAge || age > b.MaxAge {
			return reject(ReasonAge)
		}
	}

	if liq := rec.LiquidityUSD; liq > 0 && liq < b.MinLiquidity {
		return reject(ReasonLiquidity)
	}

	if f.requireTelegram {
		if strings.TrimSpace(rec.Socials.Telegram) == "" {
			return reject(ReasonSocial)
		}
	} else if !rec.Socials.Any() {
		return reject(ReasonSocial)
	}

	return Verdict{Pass: true}
}

// Apply splits records into those that pass and the rejections, preserving order.
func (f *Filter) Apply(records []domain.TokenRecord, now time.Time) ([]domain.TokenRecord, []Rejection) {
	passed := make([]domain.TokenRecord, 0, len(records))
	var rejected []Rejection
	for _, rec := range records {
		v := f.Evaluate(rec, now)
		if v.Pass {
			passed = append(passed, rec)
			continue
		}
		rejected = append(rejected, Rejection{Key: rec.Key(), Reason: v.Reason})
	}
	return passed, rejected
}

func reject(r Reason) Verdict { return Verdict{Reason: r} }
