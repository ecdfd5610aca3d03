// Package phone normalizes phone numbers to E.164 for the call provider.
// Country-code inference is best effort: a bare 10-digit number defaults to
// +91 (the launch region), which may misclassify numbers from elsewhere.
package phone

import "strings"

const (
	minDigits = 10
	maxDigits = 15
)

// Digits strips everything but digits from a raw number.
func Digits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValid reports whether the digit core of the number has a plausible length.
func IsValid(raw string) bool {
	n := len(Digits(raw))
	return n >= minDigits && n <= maxDigits
}

// Normalize formats a raw number to E.164.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	digits := Digits(trimmed)

	if strings.HasPrefix(trimmed, "+") {
		return "+" + digits
	}

	// Trunk prefix
	digits = strings.TrimPrefix(digits, "0")

	switch {
	case len(digits) == 10:
		return "+91" + digits
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		return "+" + digits
	default:
		return "+" + digits
	}
}
