package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidAccountName = errors.New("invalid account name")
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrInvalidPrecision   = errors.New("invalid currency precision")
	ErrDescriptionTooLong = errors.New("description exceeds limit")
	ErrInvalidReference   = errors.New("invalid reference")
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MaxDescriptionLength = 500
	MaxActorLength       = 128
	MaxPrecision         = 8
)

var currencyCodeRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if utf8.RuneCountInString(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	return nil
}

// NormalizeCurrencyCode upper-cases and validates a three-letter currency code.
func NormalizeCurrencyCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	if !currencyCodeRegex.MatchString(code) {
		return "", fmt.Errorf("%w: %q is not a three-letter code", ErrInvalidCurrency, code)
	}

	return code, nil
}

// ValidatePrecision validates a currency's minor-unit precision.
func ValidatePrecision(precision int32) error {
	if precision < 0 || precision > MaxPrecision {
		return fmt.Errorf("%w: %d", ErrInvalidPrecision, precision)
	}

	return nil
}

// ValidateActor validates who is posting.
func ValidateActor(actor string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrMissingActor
	}

	if len(actor) > MaxActorLength {
		return fmt.Errorf("%w: actor exceeds %d characters", ErrMissingActor, MaxActorLength)
	}

	return nil
}

// ValidateDescription validates a free-text movement description.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: %d characters allowed", ErrDescriptionTooLong, MaxDescriptionLength)
	}

	return nil
}

// ValidateReference validates an optional originating-operation reference.
func ValidateReference(ref *Reference) error {
	if ref == nil {
		return nil
	}

	if strings.TrimSpace(ref.Kind) == "" || strings.TrimSpace(ref.ID) == "" {
		return fmt.Errorf("%w: kind and id are both required", ErrInvalidReference)
	}

	return nil
}

// ValidateCallerReference validates a reference supplied from outside the
// ledger. Reserved kinds are rejected.
func ValidateCallerReference(ref *Reference) error {
	if err := ValidateReference(ref); err != nil {
		return err
	}

	if ref != nil && ref.IsReserved() {
		return fmt.Errorf("%w: kind %q is reserved for ledger-generated movements", ErrInvalidReference, ref.Kind)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit int) int {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		return DefaultPageSize
	}

	if limit > MaxPageSize {
		return MaxPageSize
	}

	return limit
}
