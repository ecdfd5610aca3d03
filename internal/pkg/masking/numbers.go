package masking

import (
	"crypto/rand"
	"fmt"
)

// Generator produces a substitute number for a masked session. The default
// implementation fakes a provider pool with prefix + random digits; a real
// provider integration can be swapped in without touching the service.
type Generator func(prefix string) (string, error)

const maskedSuffixLen = 7

// GenerateMaskedNumber returns prefix plus a random digit suffix.
func GenerateMaskedNumber(prefix string) (string, error) {
	buf := make([]byte, maskedSuffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	digits := make([]byte, maskedSuffixLen)
	for i, b := range buf {
		digits[i] = '0' + b%10
	}
	return prefix + string(digits), nil
}
