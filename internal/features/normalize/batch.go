package normalize

import (
	"cmp"
	"slices"
	"time"

	"crypto-tracker/internal/domain"
)

// MaxTokensPerSource bounds what one adapter hands to the pipeline.
const MaxTokensPerSource = 100

// AgeWindow is the coarse adapter-side age check.
type AgeWindow struct {
	Min time.Duration
	Max time.Duration
}

// Contains reports whether a token created at createdAt (epoch seconds) is inside the window.
// Max <= 0 means no upper bound.
func (w AgeWindow) Contains(createdAt int64, now time.Time) bool {
	age := now.Sub(time.Unix(createdAt, 0))
	if age < w.Min {
		return false
	}
	return w.Max <= 0 || age <= w.Max
}

// NewestFirst sorts by creation time descending and truncates to limit.
func NewestFirst(recs []domain.TokenRecord, limit int) []domain.TokenRecord {
	slices.SortStableFunc(recs, func(a, b domain.TokenRecord) int {
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}
