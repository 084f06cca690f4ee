package alert

import (
	"encoding/hex"
	"strings"

	"github.com/mr-tron/base58"
)

type ChainInfo struct {
	Name        string
	ExplorerURL string
	DexURL      string
	DexName     string
	ChartURL    string
}

// Chains holds display names and per-chain link prefixes; the token address is appended.
var Chains = map[string]ChainInfo{
	"solana": {
		Name:        "🌅 Solana",
		ExplorerURL: "https://solscan.io/token/",
		DexURL:      "https://raydium.io/swap/?inputMint=sol&outputMint=",
		DexName:     "Raydium",
		ChartURL:    "https://dexscreener.com/solana/",
	},
	"ethereum": {
		Name:        "🔷 Ethereum",
		ExplorerURL: "https://etherscan.io/token/",
		DexURL:      "https://app.uniswap.org/#/swap?inputCurrency=ETH&outputCurrency=",
		DexName:     "Uniswap",
		ChartURL:    "https://dexscreener.com/ethereum/",
	},
	"bsc": {
		Name:        "🟡 BSC",
		ExplorerURL: "https://bscscan.com/token/",
		DexURL:      "https://pancakeswap.finance/swap?inputCurrency=BNB&outputCurrency=",
		DexName:     "PancakeSwap",
		ChartURL:    "https://dexscreener.com/bsc/",
	},
	"polygon": {
		Name:        "🟣 Polygon",
		ExplorerURL: "https://polygonscan.com/token/",
		DexURL:      "https://quickswap.exchange/#/swap?inputCurrency=MATIC&outputCurrency=",
		DexName:     "QuickSwap",
		ChartURL:    "https://dexscreener.com/polygon/",
	},
	"arbitrum": {
		Name:        "🔵 Arbitrum",
		ExplorerURL: "https://arbiscan.io/token/",
		DexURL:      "https://app.uniswap.org/#/swap?inputCurrency=ETH&outputCurrency=",
		DexName:     "Uniswap",
		ChartURL:    "https://dexscreener.com/arbitrum/",
	},
	"base": {
		Name:        "🔵 Base",
		ExplorerURL: "https://basescan.org/token/",
		DexURL:      "https://app.uniswap.org/#/swap?inputCurrency=ETH&outputCurrency=",
		DexName:     "Uniswap",
		ChartURL:    "https://dexscreener.com/base/",
	},
}

// ChainName is the display name, "⛓️ Chain" for chains without an entry.
func ChainName(chain string) string {
	if info, ok := Chains[chain]; ok {
		return info.Name
	}
	if chain == "" {
		return "⛓️ Unknown"
	}
	return "⛓️ " + strings.ToUpper(chain[:1]) + chain[1:]
}

// ValidAddress checks the address encoding the chain's explorer expects:
// a 32-byte base58 key on solana, 20 hex bytes elsewhere.
func ValidAddress(chain, address string) bool {
	if chain == "solana" {
		raw, err := base58.Decode(address)
		return err == nil && len(raw) == 32
	}
	if len(address) != 42 || !strings.HasPrefix(strings.ToLower(address), "0x") {
		return false
	}
	_, err := hex.DecodeString(address[2:])
	return err == nil
}
