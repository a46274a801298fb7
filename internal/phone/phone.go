// Package phone converts loosely-formatted phone input into canonical
// WhatsApp transport addresses.
package phone

import (
	"errors"
	"strings"
)

// Suffix is the transport suffix appended to every normalized address.
const Suffix = "@c.us"

// ErrInvalidAddress is returned when the input contains no digits at all.
var ErrInvalidAddress = errors.New("phone: no digits in address")

// Address is a fully-qualified transport address: a digit sequence followed
// by Suffix, e.g. "212612345678@c.us".
type Address string

// Digits returns the address without the transport suffix.
func (a Address) Digits() string {
	return strings.TrimSuffix(string(a), Suffix)
}

// Normalize converts raw phone input into an Address.
//
// Input that already carries a transport separator ('@') is assumed to be
// fully qualified and passes through unchanged. Otherwise every non-digit
// character is stripped; if the digit string does not start with
// defaultCountryPrefix and is shorter than minDigitsForInternational, a
// single leading zero is dropped and the prefix is prepended.
func Normalize(raw, defaultCountryPrefix string, minDigitsForInternational int) (Address, error) {
	if strings.ContainsRune(raw, '@') {
		return Address(raw), nil
	}

	digits := stripNonDigits(raw)
	if digits == "" {
		return "", ErrInvalidAddress
	}

	if !strings.HasPrefix(digits, defaultCountryPrefix) && len(digits) < minDigitsForInternational {
		digits = defaultCountryPrefix + strings.TrimPrefix(digits, "0")
	}

	return Address(digits + Suffix), nil
}

// stripNonDigits keeps only '0'-'9' runes.
func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
