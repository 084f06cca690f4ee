package pumpfun

import "crypto-tracker/internal/features/normalize"

// Coin is one entry of the pump.fun frontend API.
type Coin struct {
	Mint               string           `json:"mint"`
	Name               string           `json:"name"`
	Symbol             string           `json:"symbol"`
	Description        string           `json:"description"`
	CreatedTimestamp   normalize.Number `json:"created_timestamp"`
	MarketCap          normalize.Number `json:"market_cap"`     // in SOL
	USDMarketCap       normalize.Number `json:"usd_market_cap"` // in USD
	TotalSupply        normalize.Number `json:"total_supply"`   // base units, 6 decimals
	VirtualSolReserves normalize.Number `json:"virtual_sol_reserves"`
	Volume24h          normalize.Number `json:"volume_24h"`
	Complete           bool             `json:"complete"`
	RaydiumPool        string           `json:"raydium_pool"`
	Website            string           `json:"website"`
	Telegram           string           `json:"telegram"`
	Twitter            string           `json:"twitter"`
}

// ListFields are the keys pump.fun has been seen to wrap coin lists in.
var ListFields = []string{"coins", "data"}
