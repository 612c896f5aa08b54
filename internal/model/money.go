package model

import (
	"math"
	"strconv"
)

// ParseCents converts decimal string amounts (dollars) to cents (int64).
// Use for query-string prices (e.g., "99.00" = $99.00 = 9900 cents).
// Handles edge cases: empty strings, missing decimals, large values.
// Examples: "99.00" → 9900, "1234.56" → 123456, "" → 0
func ParseCents(s string) int64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	// math.Round handles both positive and negative numbers correctly
	return int64(math.Round(f * 100))
}

// DollarsToCents converts a JSON decimal-dollar amount to cents.
// The REST layer exchanges amounts as decimal dollars (matching the
// frontend contract); everything internal is int64 minor units.
// Examples: 99.0 → 9900, 87.5 → 8750
func DollarsToCents(f float64) int64 {
	return int64(math.Round(f * 100))
}

// CentsToDollars converts cents back to a decimal-dollar amount for responses.
func CentsToDollars(c int64) float64 {
	return float64(c) / 100
}
