package alert

import (
	"time"

	"crypto-tracker/internal/domain"
)

// RiskLevel is an advisory label shown in the alert. It never affects filtering.
type RiskLevel string

const (
	RiskExtreme RiskLevel = "🔴 EXTREME"
	RiskHigh    RiskLevel = "🟠 HIGH"
	RiskMedium  RiskLevel = "🟡 MEDIUM"
	RiskLow     RiskLevel = "🟢 LOW"
)

// Below this market cap the alert footer carries a warning.
const HighRiskMarketCap = 50_000

// RiskScore adds points for small market cap, thin liquidity, young age and missing socials.
// Unknown (zero) market cap and liquidity count as small.
func RiskScore(rec domain.TokenRecord, now time.Time) int {
	score := 0

	switch mc := rec.MarketCapUSD; {
	case mc < 10_000:
		score += 3
	case mc < 100_000:
		score += 2
	case mc < 1_000_000:
		score++
	}

	switch liq := rec.LiquidityUSD; {
	case liq < 1_000:
		score += 2
	case liq < 5_000:
		score++
	}

	if rec.CreatedAt > 0 {
		switch age := rec.Age(now); {
		case age < time.Hour:
			score += 2
		case age < 24*time.Hour:
			score++
		}
	}

	if !rec.Socials.Any() {
		score++
	}
	return score
}

func Risk(rec domain.TokenRecord, now time.Time) RiskLevel {
	switch score := RiskScore(rec, now); {
	case score >= 6:
		return RiskExtreme
	case score >= 4:
		return RiskHigh
	case score >= 2:
		return RiskMedium
	default:
		return RiskLow
	}
}

// HoneypotRisk flags liquidity under 1% of market cap, or a sub-hour-old
// token above $100K with no social presence at all.
func HoneypotRisk(rec domain.TokenRecord, now time.Time) bool {
	if rec.MarketCapUSD > 0 && rec.LiquidityUSD > 0 && rec.LiquidityUSD/rec.MarketCapUSD < 0.01 {
		return true
	}
	if !rec.Socials.Any() && rec.MarketCapUSD > 100_000 && rec.CreatedAt > 0 && rec.Age(now) < time.Hour {
		return true
	}
	return false
}
