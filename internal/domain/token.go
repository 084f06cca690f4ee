package domain

import (
	"strings"
	"time"
)

// Source tags which adapter produced a record.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
)

func (s Source) IsValid() bool {
	return s == SourcePrimary || s == SourceFallback
}

type SocialLinks struct {
	Website  string `json:"website,omitempty"`
	Telegram string `json:"telegram,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
}

// Any reports whether at least one link is populated.
func (s SocialLinks) Any() bool {
	return s.Website != "" || s.Telegram != "" || s.Twitter != ""
}

// TokenRecord is the provider-independent view of one listing.
// Zero numeric fields mean "unknown", not "zero".
type TokenRecord struct {
	Address           string      `json:"address"`
	Chain             string      `json:"chain"`
	Name              string      `json:"name"`
	Symbol            string      `json:"symbol"`
	MarketCapUSD      float64     `json:"marketCapUsd"`
	PriceUSD          float64     `json:"priceUsd"`
	LiquidityUSD      float64     `json:"liquidityUsd"`
	Volume24hUSD      float64     `json:"volume24hUsd"`
	PriceChange24hPct float64     `json:"priceChange24hPct"`
	CreatedAt         int64       `json:"createdAtEpochSeconds"`
	Socials           SocialLinks `json:"socialLinks"`
	Source            Source      `json:"source"`
	IsCandidate       bool        `json:"isCandidateHeuristic"`

	DexID   string `json:"dexId,omitempty"`
	PairURL string `json:"pairUrl,omitempty"`
}

// IdentityKey builds the chain:address key used for dedup and the ledger.
func IdentityKey(chain, address string) string {
	return strings.ToLower(strings.TrimSpace(chain)) + ":" + strings.TrimSpace(address)
}

func (t TokenRecord) Key() string {
	return IdentityKey(t.Chain, t.Address)
}

// Age is zero when the creation time is unknown.
func (t TokenRecord) Age(now time.Time) time.Duration {
	if t.CreatedAt <= 0 {
		return 0
	}
	return now.Sub(time.Unix(t.CreatedAt, 0))
}

// Clamp zeroes negative monetary values.
func (t *TokenRecord) Clamp() {
	for _, v := range []*float64{&t.MarketCapUSD, &t.PriceUSD, &t.LiquidityUSD, &t.Volume24hUSD} {
		if *v < 0 {
			*v = 0
		}
	}
	if t.CreatedAt < 0 {
		t.CreatedAt = 0
	}
}
