// Package cep normalizes and validates Brazilian postal codes (CEP).
package cep

import "strings"

const (
	// Length is the number of digits in a complete CEP.
	Length = 8

	// prefixLength is the number of digits shown before the separator.
	prefixLength = 5

	// Separator is inserted after the fifth digit in the display form.
	Separator = '-'
)

// Code is a postal code as typed by the user after normalization.
// Digits holds at most Length ASCII digits and may be incomplete.
type Code struct {
	Digits  string
	Display string
}

// Normalize strips every non-digit from raw, keeps at most the first eight
// digits and builds the display form (12345678 -> 12345-678).
// Digits typed past the eighth are dropped, not rejected.
func Normalize(raw string) Code {
	var b strings.Builder
	b.Grow(Length)

	for i := 0; i < len(raw) && b.Len() < Length; i++ {
		if c := raw[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}

	digits := b.String()
	return Code{Digits: digits, Display: Format(digits)}
}

// Format renders already-normalized digits for display.
func Format(digits string) string {
	if len(digits) <= prefixLength {
		return digits
	}
	return digits[:prefixLength] + string(Separator) + digits[prefixLength:]
}

// IsComplete reports whether digits is a complete, well-formed CEP.
// It does not check that the code exists.
func IsComplete(digits string) bool {
	if len(digits) != Length {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

// Complete reports whether the code can be looked up.
func (c Code) Complete() bool {
	return IsComplete(c.Digits)
}
