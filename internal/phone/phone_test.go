package phone

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeAddsPrefixAndSuffix(t *testing.T) {
	got, err := Normalize("0612345678", "212", 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "212612345678@c.us" {
		t.Fatalf("expected 212612345678@c.us, got %s", got)
	}
}

func TestNormalizeKeepsExistingPrefix(t *testing.T) {
	got, err := Normalize("+212612345678", "212", 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "212612345678@c.us" {
		t.Fatalf("expected 212612345678@c.us, got %s", got)
	}
}

func TestNormalizePassesThroughQualifiedAddress(t *testing.T) {
	got, err := Normalize("212612345678@c.us", "212", 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "212612345678@c.us" {
		t.Fatalf("qualified address changed: %s", got)
	}
}

func TestNormalizeLongNumbersSkipPrefix(t *testing.T) {
	// 13 digits, no configured prefix: already international, left alone.
	got, err := Normalize("4915123456789", "212", 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "4915123456789@c.us" {
		t.Fatalf("expected 4915123456789@c.us, got %s", got)
	}
}

func TestNormalizeStripsAllNonDigits(t *testing.T) {
	inputs := []string{"(06) 12-34 56.78", "+2 1 2 6x1y2z345678", "06.12.34.56.78"}
	for _, in := range inputs {
		got, err := Normalize(in, "212", 12)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		digits := got.Digits()
		if strings.ContainsAny(digits, "()-. xyz+") {
			t.Errorf("Normalize(%q) left non-digits: %s", in, got)
		}
		if !strings.HasSuffix(string(got), Suffix) {
			t.Errorf("Normalize(%q) missing suffix: %s", in, got)
		}
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	for _, in := range []string{"", "abc", "+-()"} {
		if _, err := Normalize(in, "212", 12); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("Normalize(%q): expected ErrInvalidAddress, got %v", in, err)
		}
	}
}

func TestDigits(t *testing.T) {
	a := Address("212612345678@c.us")
	if a.Digits() != "212612345678" {
		t.Fatalf("Digits: got %s", a.Digits())
	}
}
