package masking

import (
	"strings"
	"testing"
)

func TestGenerateMaskedNumber(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n, err := GenerateMaskedNumber("+1555")
		if err != nil {
			t.Fatalf("GenerateMaskedNumber returned error: %v", err)
		}
		if !strings.HasPrefix(n, "+1555") {
			t.Fatalf("expected prefix +1555, got %q", n)
		}
		if len(n) != len("+1555")+maskedSuffixLen {
			t.Fatalf("unexpected length for %q", n)
		}
		for _, r := range n[len("+1555"):] {
			if r < '0' || r > '9' {
				t.Fatalf("non-digit suffix in %q", n)
			}
		}
		seen[n] = true
	}
	// 100 draws from a 10^7 space colliding down to a handful would mean the
	// generator is broken.
	if len(seen) < 90 {
		t.Fatalf("expected mostly unique numbers, got %d distinct", len(seen))
	}
}
