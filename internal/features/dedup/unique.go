package dedup

import (
	"crypto-tracker/internal/domain"

	"github.com/samber/lo"
)

// Unique collapses records sharing an identity key, keeping the first one seen.
// Callers put the primary source first so it wins ties.
func Unique(records []domain.TokenRecord) []domain.TokenRecord {
	return lo.UniqBy(records, func(r domain.TokenRecord) string {
		return r.Key()
	})
}
