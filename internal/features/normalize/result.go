package normalize

import (
	"fmt"

	"crypto-tracker/internal/domain"
)

// Result is the outcome of normalizing one item: a record or a skip.
type Result struct {
	Record domain.TokenRecord
	Skip   *domain.Skip
}

func (r Result) OK() bool { return r.Skip == nil }

func Ok(rec domain.TokenRecord) Result {
	rec.Clamp()
	return Result{Record: rec}
}

func Skipped(unit string, reason domain.SkipReason, detail string) Result {
	return Result{Skip: &domain.Skip{Unit: unit, Reason: reason, Detail: detail}}
}

// Guard runs fn and turns a panic into a skip for unit.
func Guard(unit string, fn func() Result) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Skipped(unit, domain.SkipPanic, fmt.Sprint(r))
		}
	}()
	return fn()
}
