package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MovementKind classifies a movement and fixes the sign its amount must carry.
type MovementKind string

const (
	KindIngreso          MovementKind = "INGRESO"
	KindEgreso           MovementKind = "EGRESO"
	KindOpeningBalance   MovementKind = "OPENING_BALANCE"
	KindTransferOut      MovementKind = "TRANSFER_OUT"
	KindTransferIn       MovementKind = "TRANSFER_IN"
	KindTransferReversal MovementKind = "TRANSFER_REVERSAL"
	KindAdjustment       MovementKind = "ADJUSTMENT"
)

// Sign is the sign a movement amount is required to carry.
type Sign int

const (
	SignEither Sign = iota
	SignPositive
	SignNegative
)

func (s Sign) String() string {
	switch s {
	case SignPositive:
		return "positive"
	case SignNegative:
		return "negative"
	default:
		return "either"
	}
}

// Matches reports whether amount satisfies the sign. Zero satisfies none but SignEither.
func (s Sign) Matches(amount decimal.Decimal) bool {
	switch s {
	case SignPositive:
		return amount.IsPositive()
	case SignNegative:
		return amount.IsNegative()
	default:
		return true
	}
}

// signRules is the single source of truth for kind/sign conventions.
// Posting, auditing and reconciliation all read it.
var signRules = map[MovementKind]Sign{
	KindIngreso:          SignPositive,
	KindEgreso:           SignNegative,
	KindOpeningBalance:   SignEither,
	KindTransferOut:      SignNegative,
	KindTransferIn:       SignPositive,
	KindTransferReversal: SignPositive,
	KindAdjustment:       SignEither,
}

// Kinds returns every known movement kind in a stable order.
func Kinds() []MovementKind {
	return []MovementKind{
		KindIngreso,
		KindEgreso,
		KindOpeningBalance,
		KindTransferOut,
		KindTransferIn,
		KindTransferReversal,
		KindAdjustment,
	}
}

// ParseKind normalizes s and returns the matching kind.
func ParseKind(s string) (MovementKind, error) {
	k := MovementKind(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := signRules[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}

	return k, nil
}

// SignRuleFor returns the sign required for kind.
func SignRuleFor(kind MovementKind) (Sign, error) {
	sign, ok := signRules[kind]
	if !ok {
		return SignEither, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
	}

	return sign, nil
}

// ValidateSign checks amount against the rule for kind.
func ValidateSign(kind MovementKind, amount decimal.Decimal) error {
	sign, err := SignRuleFor(kind)
	if err != nil {
		return err
	}

	if !sign.Matches(amount) {
		return &SignMismatchError{Kind: kind, Amount: amount, Expected: sign}
	}

	return nil
}

// CorrectedAmount returns amount with the sign its kind requires.
// Kinds without a fixed sign return amount unchanged.
func CorrectedAmount(kind MovementKind, amount decimal.Decimal) decimal.Decimal {
	switch signRules[kind] {
	case SignPositive:
		return amount.Abs()
	case SignNegative:
		return amount.Abs().Neg()
	default:
		return amount
	}
}
