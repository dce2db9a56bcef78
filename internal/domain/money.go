package domain

import "github.com/shopspring/decimal"

// DefaultPrecision is the number of minor-unit decimal places for cash currencies.
const DefaultPrecision int32 = 2

// Tolerance absorbs historical rounding when comparing balances.
var Tolerance = decimal.New(1, -2)

// WithinTolerance reports whether a and b differ by at most Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// ExceedsTolerance is the negation of WithinTolerance, named for readability at call sites.
func ExceedsTolerance(a, b decimal.Decimal) bool {
	return !WithinTolerance(a, b)
}
