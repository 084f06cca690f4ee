package alert

import (
	"strings"
	"testing"
	"time"

	"crypto-tracker/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Unix(1_750_000_000, 0)

const solMint = "7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr"

func sample() domain.TokenRecord {
	return domain.TokenRecord{
		Address:           solMint,
		Chain:             "solana",
		Name:              "Moon_Cat",
		Symbol:            "MCAT",
		MarketCapUSD:      25_000,
		PriceUSD:          0.0000251,
		LiquidityUSD:      8_000,
		Volume24hUSD:      1_234.5,
		PriceChange24hPct: 12.5,
		CreatedAt:         now.Add(-(3*time.Hour + 12*time.Minute)).Unix(),
		Socials: domain.SocialLinks{
			Website:  "https://mooncat.example",
			Telegram: "https://t.me/mooncat",
		},
		Source: domain.SourcePrimary,
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{2*24*time.Hour + 3*time.Hour + 59*time.Minute, "2d 3h"},
		{3*time.Hour + 12*time.Minute + 30*time.Second, "3h 12m"},
		{12*time.Minute + 45*time.Second, "12m 45s"},
		{45 * time.Second, "45s"},
		{-time.Minute, "0s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAge(tt.in))
	}
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0"},
		{999.5, "$999.5"},
		{1_000, "$1K"},
		{25_500, "$25.5K"},
		{1_234_567, "$1.23M"},
		{2_000_000_000, "$2B"},
		{999.994, "$999.99"},
		{999.996, "$1K"},
		{999_996, "$1M"},
		{999_996_000, "$1B"},
		{2_500_000_000_000, "$2500B"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatUSD(tt.in))
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "Unknown", FormatPrice(0))
	assert.Equal(t, "$1.5000", FormatPrice(1.5))
	assert.Equal(t, "$0.050000", FormatPrice(0.05))
	assert.Equal(t, "$0.00002510", FormatPrice(0.0000251))
	assert.Equal(t, "$1.00e-09", FormatPrice(1e-9))
}

func TestShortAddress(t *testing.T) {
	assert.Equal(t, "7GCihg...W2hr", ShortAddress(solMint))
	assert.Equal(t, "short", ShortAddress("short"))
}

func TestFormatRendersAllSections(t *testing.T) {
	text := Format(sample(), now)

	assert.Contains(t, text, `🚀 *NEW TOKEN:* Moon\_Cat ($MCAT)`)
	assert.Contains(t, text, "*Chain:* 🌅 Solana")
	assert.Contains(t, text, "*Age:* 3h 12m")
	assert.Contains(t, text, "`7GCihg...W2hr`")
	assert.Contains(t, text, "*Price:* $0.00002510 🚀 +12.50%")
	assert.Contains(t, text, "*Market Cap:* $25K")
	assert.Contains(t, text, "*Liquidity:* $8K")
	assert.Contains(t, text, "*Volume 24h:* $1.23K")
	assert.Contains(t, text, "[Telegram](https://t.me/mooncat)")
	assert.Contains(t, text, "[Explorer](https://solscan.io/token/"+solMint+")")
	assert.Contains(t, text, "Source: DexScreener | ⚠️ *HIGH RISK")
	assert.NotContains(t, text, "honeypot")
}

func TestTitleKeepsProviderTextOutsideBold(t *testing.T) {
	rec := sample()
	rec.Name = "Moon*Cat_"
	rec.Symbol = "M*C"

	header, _, _ := strings.Cut(Format(rec, now), "\n")
	assert.Equal(t, `🚀 *NEW TOKEN:* Moon\*Cat\_ ($M\*C)`, header)
	bold := strings.Count(header, "*") - strings.Count(header, `\*`)
	assert.Equal(t, 2, bold, "only the label is bold")
}

func TestFormatUnknownAgeAndNoWarningAboveThreshold(t *testing.T) {
	rec := sample()
	rec.CreatedAt = 0
	rec.MarketCapUSD = 75_000

	text := Format(rec, now)
	assert.Contains(t, text, "*Age:* Unknown")
	assert.NotContains(t, text, "HIGH RISK")
}

func TestLinksAreUnique(t *testing.T) {
	rec := sample()
	rec.PairURL = "https://dexscreener.com/solana/" + solMint

	links := Links(rec)
	chart := 0
	for _, l := range links {
		if strings.Contains(l, "(https://dexscreener.com/solana/"+solMint+")") {
			chart++
		}
	}
	assert.Equal(t, 1, chart, "pair url equal to the chart url is dropped")
	assert.Len(t, links, 5)

	rec.Socials.Twitter = rec.Socials.Website
	rec.PairURL = "https://pump.fun/coin/" + solMint
	links = Links(rec)
	require.Len(t, links, 6)
	assert.Equal(t, "[Website](https://mooncat.example) 🌐", links[0])
	assert.Equal(t, "[Pair](https://pump.fun/coin/"+solMint+") 🔗", links[5])
}

func TestLinksSkipExplorerForInvalidAddress(t *testing.T) {
	rec := sample()
	rec.Address = "notBase58_0OIl"
	for _, l := range Links(rec) {
		assert.NotContains(t, l, "Explorer")
	}

	rec.Chain = "unknownchain"
	rec.Socials = domain.SocialLinks{}
	assert.Empty(t, Links(rec))
}

func TestLinksSanitizeAndCollapse(t *testing.T) {
	rec := domain.TokenRecord{Chain: "other", PairURL: "https://a.example", Socials: domain.SocialLinks{Website: "https://a.example"}}
	assert.Equal(t, []string{"[Website](https://a.example) 🌐"}, Links(rec))

	lines := Links(domain.TokenRecord{Chain: "x", Socials: domain.SocialLinks{Website: "https://a.example/(x)"}})
	require.Len(t, lines, 1)
	assert.Equal(t, "[Website](https://a.example/%28x%29) 🌐", lines[0])
}

func TestFallbackIsNeverEmpty(t *testing.T) {
	assert.NotEmpty(t, Fallback(domain.TokenRecord{}))
	assert.Contains(t, Fallback(sample()), solMint)
}

func TestRiskLevels(t *testing.T) {
	rec := sample()
	// cap 25K (+2), liquidity 8K (0), age 3h (+1), socials present
	assert.Equal(t, 3, RiskScore(rec, now))
	assert.Equal(t, RiskMedium, Risk(rec, now))

	rec.MarketCapUSD = 5_000
	rec.LiquidityUSD = 500
	rec.CreatedAt = now.Add(-10 * time.Minute).Unix()
	rec.Socials = domain.SocialLinks{}
	assert.Equal(t, RiskExtreme, Risk(rec, now))

	big := sample()
	big.MarketCapUSD = 5_000_000
	big.LiquidityUSD = 500_000
	big.CreatedAt = now.Add(-72 * time.Hour).Unix()
	assert.Equal(t, RiskLow, Risk(big, now))
}

func TestHoneypotRisk(t *testing.T) {
	rec := sample()
	assert.False(t, HoneypotRisk(rec, now))

	rec.LiquidityUSD = 200
	assert.True(t, HoneypotRisk(rec, now), "liquidity under 1% of market cap")

	rec = sample()
	rec.MarketCapUSD = 200_000
	rec.LiquidityUSD = 0
	rec.Socials = domain.SocialLinks{}
	rec.CreatedAt = now.Add(-10 * time.Minute).Unix()
	assert.True(t, HoneypotRisk(rec, now))

	assert.Contains(t, Format(rec, now), "honeypot")
}

func TestChainName(t *testing.T) {
	assert.Equal(t, "🔷 Ethereum", ChainName("ethereum"))
	assert.Equal(t, "⛓️ Sui", ChainName("sui"))
	assert.Equal(t, "⛓️ Unknown", ChainName(""))
}

func TestValidAddress(t *testing.T) {
	assert.True(t, ValidAddress("solana", solMint))
	assert.False(t, ValidAddress("solana", "abc"))
	assert.True(t, ValidAddress("ethereum", "0x"+strings.Repeat("ab", 20)))
	assert.False(t, ValidAddress("ethereum", "0x"+strings.Repeat("zz", 20)))
}
