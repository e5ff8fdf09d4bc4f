// Package currency normalizes free-form monetary strings ("$2,500.50",
// "1.5k", "1.000,50 EUR") into plain float values.
package currency

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoAmount is returned when no numeric amount can be extracted.
var ErrNoAmount = errors.New("no numeric amount found")

var (
	symbolReplacer = strings.NewReplacer("€", "", "$", "", "£", "", "¥", "", "₹", "", "₽", "", "¢", "")

	// Longest words first so whole words win over their ISO-code prefixes.
	currencyWordPattern = regexp.MustCompile(`(?i)\b(dollars|rupees|rubles|pounds|euros|cents|yen|usd|eur|gbp|jpy|inr|rub)\b`)

	// European formats: "1.234,56" (dot-grouped thousands) or "1234,5".
	europeanGrouped = regexp.MustCompile(`^\d{1,3}(\.\d{3})+,\d{1,2}$`)
	europeanPlain   = regexp.MustCompile(`^\d+,\d{1,2}$`)

	numberPattern = regexp.MustCompile(`\d+(\.\d+)?`)
)

// Parse converts a free-form monetary string into a numeric value.
//
// Scale detection ("k", "m", "b" and their spelled-out forms) is substring
// based and runs after currency words are stripped; a bare "m" inside
// unrelated text still triggers the multiplier. This mirrors how users
// actually type values ("1.5m", "about 2 m") at the cost of occasional
// false positives.
func Parse(raw string) (float64, error) {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, fmt.Errorf("currency: empty input: %w", ErrNoAmount)
	}

	cleaned = symbolReplacer.Replace(cleaned)
	cleaned = currencyWordPattern.ReplaceAllString(cleaned, "")

	scale := 1.0
	switch {
	case strings.Contains(cleaned, "k") || strings.Contains(cleaned, "thousand"):
		scale = 1_000
	case strings.Contains(cleaned, "m") || strings.Contains(cleaned, "million"):
		scale = 1_000_000
	case strings.Contains(cleaned, "b") || strings.Contains(cleaned, "billion"):
		scale = 1_000_000_000
	}
	for _, word := range []string{"thousand", "million", "billion", "k", "m", "b"} {
		cleaned = strings.ReplaceAll(cleaned, word, "")
	}
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	if europeanGrouped.MatchString(cleaned) || europeanPlain.MatchString(cleaned) {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	if value, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return value * scale, nil
	}

	// Direct parse failed; salvage the first numeric substring.
	match := numberPattern.FindString(cleaned)
	if match == "" {
		return 0, fmt.Errorf("currency: invalid currency format %q: %w", raw, ErrNoAmount)
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("currency: invalid currency format %q: %w", raw, ErrNoAmount)
	}
	return value * scale, nil
}
