package namegen

import (
	"strings"
	"testing"
)

func TestPirateName(t *testing.T) {
	name, err := PirateName()
	if err != nil {
		t.Fatalf("PirateName: %v", err)
	}
	if !strings.Contains(name, " ") {
		t.Errorf("expected 'Rank Epithet' form, got %q", name)
	}
}

func TestItemCode(t *testing.T) {
	code, err := ItemCode()
	if err != nil {
		t.Fatalf("ItemCode: %v", err)
	}
	parts := strings.Split(code, "-")
	if len(parts) != 2 || len(parts[1]) != 4 {
		t.Errorf("expected 'noun-xxxx' form, got %q", code)
	}
}

func TestItemCodeVariety(t *testing.T) {
	seen := map[string]bool{}
	for range 50 {
		code, err := ItemCode()
		if err != nil {
			t.Fatalf("ItemCode: %v", err)
		}
		seen[code] = true
	}
	// 10 nouns * 65536 suffixes; 50 draws colliding down to a handful
	// would mean the generator is broken.
	if len(seen) < 40 {
		t.Errorf("expected variety in generated codes, got %d unique of 50", len(seen))
	}
}
