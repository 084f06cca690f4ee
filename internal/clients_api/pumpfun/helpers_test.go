package pumpfun

import "crypto-tracker/internal/features/normalize"

func numberOf(v float64) normalize.Number {
	return normalize.Number{Value: v, Valid: true}
}
