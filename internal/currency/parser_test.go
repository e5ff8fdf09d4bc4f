package currency

import (
	"errors"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		input string
		want  float64
	}{
		{"$2,500.50", 2500.50},
		{"500 euros", 500},
		{"1.5k", 1500},
		{"1.000,50", 1000.50},
		{"€1,200", 1200},
		{"2500", 2500},
		{"2 million", 2_000_000},
		{"3b", 3_000_000_000},
		{"1,5", 1.5},
		{"£10k", 10_000},
		{"  42 USD  ", 42},
		{"1234,56", 1234.56},
		{"99 cents", 99},
	}

	for _, tc := range cases {
		got, err := Parse(tc.input)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestParseCurrencyWordsDoNotTriggerScale(t *testing.T) {
	// "rubles" contains "b"; the word must be stripped before scale detection.
	got, err := Parse("50 rubles")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got != 50 {
		t.Errorf("Parse(\"50 rubles\") = %v, want 50", got)
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"", "   ", "abc", "???", "no price here"} {
		_, err := Parse(input)
		if err == nil {
			t.Errorf("Parse(%q) expected error, got none", input)
			continue
		}
		if !errors.Is(err, ErrNoAmount) {
			t.Errorf("Parse(%q) error should wrap ErrNoAmount, got %v", input, err)
		}
	}
}

func TestParseErrorNamesInput(t *testing.T) {
	_, err := Parse("gibberish")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "gibberish") {
		t.Errorf("error should name the original input, got %q", err.Error())
	}
}

func TestParseFallbackExtractsNumber(t *testing.T) {
	got, err := Parse("around 750 or so")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got != 750 {
		t.Errorf("Parse fallback = %v, want 750", got)
	}
}
