package dexscreener

import "crypto-tracker/internal/features/normalize"

// Pair is a DexScreener trading pair as returned by the search and tokens endpoints.
type Pair struct {
	ChainID       string           `json:"chainId"`
	DexID         string           `json:"dexId"`
	URL           string           `json:"url"`
	PairAddress   string           `json:"pairAddress"`
	BaseToken     TokenRef         `json:"baseToken"`
	QuoteToken    TokenRef         `json:"quoteToken"`
	PriceUSD      normalize.Number `json:"priceUsd"` // string on the wire
	MarketCap     normalize.Number `json:"marketCap"`
	FDV           normalize.Number `json:"fdv"`
	Liquidity     Liquidity        `json:"liquidity"`
	Volume        Window           `json:"volume"`
	PriceChange   Window           `json:"priceChange"`
	PairCreatedAt normalize.Number `json:"pairCreatedAt"` // milliseconds
	Info          *PairInfo        `json:"info"`
}

type TokenRef struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type Liquidity struct {
	USD   normalize.Number `json:"usd"`
	Base  normalize.Number `json:"base"`
	Quote normalize.Number `json:"quote"`
}

type Window struct {
	H24 normalize.Number `json:"h24"`
	H6  normalize.Number `json:"h6"`
	H1  normalize.Number `json:"h1"`
	M5  normalize.Number `json:"m5"`
}

type PairInfo struct {
	ImageURL string `json:"imageUrl"`
	Websites []Link `json:"websites"`
	Socials  []Link `json:"socials"`
}

// Link covers both info.websites ({label,url}) and info.socials / profile links ({type,url}).
type Link struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Profile is an entry of token-profiles/latest or token-boosts/latest.
// It carries identity and links but no market data.
type Profile struct {
	URL          string `json:"url"`
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
	Description  string `json:"description"`
	Links        []Link `json:"links"`
}

// ListFields are the keys DexScreener wraps lists in.
var ListFields = []string{"pairs", "tokens", "data"}

// probe decides which of the two item kinds a raw entry is.
type probe struct {
	BaseToken    *TokenRef `json:"baseToken"`
	TokenAddress string    `json:"tokenAddress"`
}
