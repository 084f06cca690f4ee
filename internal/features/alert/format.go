package alert

// Telegram alert text for one token. Telegram legacy Markdown.

import (
	"fmt"
	"math"
	"strings"
	"time"

	"crypto-tracker/internal/domain"
	"crypto-tracker/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Format renders rec as alert text. It never fails: a panic while rendering
// yields a short fallback message instead.
func Format(rec domain.TokenRecord, now time.Time) (text string) {
	defer func() {
		if r := recover(); r != nil {
			log.LogError("Failed to format token alert",
				zap.String("token", rec.Key()),
				zap.Any("panic", r))
			text = Fallback(rec)
		}
	}()
	return format(rec, now)
}

// Fallback is the degraded message used when the full alert cannot be rendered.
func Fallback(rec domain.TokenRecord) string {
	address := rec.Address
	if address == "" {
		address = "unknown"
	}
	return fmt.Sprintf("🚀 New token detected: %s (%s)", escape(address), escape(rec.Chain))
}

// FormatStatus wraps an operator status text.
func FormatStatus(text string) string {
	return "🤖 *Bot Status*\n\n" + escape(text)
}

func format(rec domain.TokenRecord, now time.Time) string {
	var message strings.Builder

	// Escapes only hold outside entities, so provider text stays out of the bold span.
	message.WriteString(fmt.Sprintf("🚀 *NEW TOKEN:* %s ($%s)\n\n", escape(rec.Name), escape(rec.Symbol)))

	message.WriteString(fmt.Sprintf("*Chain:* %s\n", ChainName(rec.Chain)))
	if rec.CreatedAt > 0 {
		message.WriteString(fmt.Sprintf("*Age:* %s\n", FormatAge(rec.Age(now))))
	} else {
		message.WriteString("*Age:* Unknown\n")
	}
	message.WriteString(fmt.Sprintf("*Contract:* `%s`\n\n", ShortAddress(rec.Address)))

	message.WriteString(fmt.Sprintf("*Price:* %s %s %+.2f%%\n", FormatPrice(rec.PriceUSD), changeEmoji(rec.PriceChange24hPct), rec.PriceChange24hPct))
	message.WriteString(fmt.Sprintf("*Market Cap:* %s 💰\n", FormatUSD(rec.MarketCapUSD)))
	message.WriteString(fmt.Sprintf("*Liquidity:* %s 💧\n", FormatUSD(rec.LiquidityUSD)))
	message.WriteString(fmt.Sprintf("*Volume 24h:* %s 📊\n", FormatUSD(rec.Volume24hUSD)))
	message.WriteString(fmt.Sprintf("*Risk:* %s\n", Risk(rec, now)))
	if HoneypotRisk(rec, now) {
		message.WriteString("🍯 Possible honeypot: check liquidity before buying\n")
	}

	if links := Links(rec); len(links) > 0 {
		message.WriteString("\n*Links:*\n")
		message.WriteString(strings.Join(links, " | "))
		message.WriteString("\n")
	}

	message.WriteString(fmt.Sprintf("\nSource: %s", sourceLabel(rec)))
	if rec.MarketCapUSD < HighRiskMarketCap {
		message.WriteString(" | ⚠️ *HIGH RISK - Do Your Own Research!*")
	}

	return message.String()
}

// Links renders the social and chain links in display order. A URL already
// rendered under an earlier label is not repeated.
func Links(rec domain.TokenRecord) []string {
	type link struct{ url, line string }
	var links []link
	add := func(label, url, emoji string) {
		if url = sanitizeURL(url); url != "" {
			links = append(links, link{url: url, line: fmt.Sprintf("[%s](%s) %s", label, url, emoji)})
		}
	}

	add("Website", rec.Socials.Website, "🌐")
	add("Telegram", rec.Socials.Telegram, "📱")
	add("Twitter", rec.Socials.Twitter, "🐦")

	if info, ok := Chains[rec.Chain]; ok && rec.Address != "" {
		add("Chart", info.ChartURL+rec.Address, "📈")
		if info.DexURL != "" {
			add("Trade on "+info.DexName, info.DexURL+rec.Address, "💹")
		}
		if info.ExplorerURL != "" && ValidAddress(rec.Chain, rec.Address) {
			add("Explorer", info.ExplorerURL+rec.Address, "🔍")
		}
	}
	add("Pair", rec.PairURL, "🔗")

	links = lo.UniqBy(links, func(l link) string { return l.url })
	return lo.Map(links, func(l link, _ int) string { return l.line })
}

// FormatAge uses the two coarsest units: "2d 3h", "3h 12m", "12m 45s" or "45s".
func FormatAge(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	days, hours := secs/86400, secs%86400/3600
	minutes, seconds := secs%3600/60, secs%60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

var usdUnits = []struct {
	div    float64
	suffix string
}{{1, ""}, {1e3, "K"}, {1e6, "M"}, {1e9, "B"}}

// FormatUSD formats money with K/M/B suffixes and no trailing zeros.
// The suffix is picked after rounding to cents, so 999999 is "$1M", not "$1000K".
func FormatUSD(v float64) string {
	if v <= 0 || math.IsNaN(v) {
		return "$0"
	}

	i := 0
	for i < len(usdUnits)-1 && v >= usdUnits[i+1].div {
		i++
	}
	scaled := math.Round(v/usdUnits[i].div*100) / 100
	if scaled >= 1000 && i < len(usdUnits)-1 {
		i++
		scaled = math.Round(v/usdUnits[i].div*100) / 100
	}
	return "$" + trimZeros(fmt.Sprintf("%.2f", scaled)) + usdUnits[i].suffix
}

// FormatPrice keeps more decimals the smaller the price is.
func FormatPrice(p float64) string {
	switch {
	case p <= 0:
		return "Unknown"
	case p >= 1:
		return fmt.Sprintf("$%.4f", p)
	case p >= 0.01:
		return fmt.Sprintf("$%.6f", p)
	case p >= 0.000001:
		return fmt.Sprintf("$%.8f", p)
	default:
		return fmt.Sprintf("$%.2e", p)
	}
}

// Mint111...abcd
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

func trimZeros(s string) string {
	return strings.TrimRight(strings.TrimRight(s, "0"), ".")
}

func changeEmoji(pct float64) string {
	switch {
	case pct > 5:
		return "🚀"
	case pct > 0:
		return "🟢"
	case pct < -10:
		return "💥"
	case pct < 0:
		return "🔴"
	default:
		return "🟡"
	}
}

func sourceLabel(rec domain.TokenRecord) string {
	switch rec.Source {
	case domain.SourcePrimary:
		return "DexScreener"
	case domain.SourceFallback:
		return "pump.fun"
	default:
		return "Unknown"
	}
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// sanitizeURL keeps a URL from closing the Markdown link early.
func sanitizeURL(url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	return strings.NewReplacer("(", "%28", ")", "%29", " ", "%20").Replace(url)
}
