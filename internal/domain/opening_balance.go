package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpeningBalance anchors chain replay for a pair. Movements with a sequence
// greater than StartsAfterSequence are replayed on top of Quantity.
type OpeningBalance struct {
	CreatedAt           time.Time
	SupersededAt        *time.Time
	ID                  string
	AccountID           string
	CurrencyID          string
	Actor               string
	SupersededBy        string
	Quantity            decimal.Decimal
	StartsAfterSequence int64
	Active              bool
}

// Seed returns the replay seed for a pair with the given optional anchor.
func Seed(opening *OpeningBalance) (decimal.Decimal, int64) {
	if opening == nil {
		return decimal.Zero, 0
	}

	return opening.Quantity, opening.StartsAfterSequence
}
