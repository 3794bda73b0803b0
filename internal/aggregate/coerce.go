package aggregate

import (
	"math"
	"strconv"
	"strings"
)

// nestedNumericKeys are probed, in order, when coercing a nested object to a
// number.
var nestedNumericKeys = []string{"value", "amount", "cost", "price"}

// CoerceNumeric performs the best-effort numeric coercion shared by every
// extraction path. Precedence:
//
//  1. a finite JSON number is taken as-is;
//  2. a string is parsed after stripping every character outside [0-9.],
//     so "USD 12.50" and "12,50 EUR" both coerce;
//  3. an object is probed for value/amount/cost/price and the first present
//     field is parsed as a plain number or numeric string.
//
// Returns (0, false) when no finite number can be extracted.
func CoerceNumeric(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if isFinite(t) {
			return t, true
		}
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		stripped := stripNonNumeric(t)
		if stripped == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(stripped, 64)
		if err == nil && isFinite(n) {
			return n, true
		}
	case map[string]any:
		for _, k := range nestedNumericKeys {
			inner, ok := t[k]
			if !ok {
				continue
			}
			return coerceScalar(inner)
		}
	}
	return 0, false
}

// coerceScalar parses numbers and plain numeric strings without the
// character-stripping leniency applied to top-level strings.
func coerceScalar(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if isFinite(t) {
			return t, true
		}
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err == nil && isFinite(n) {
			return n, true
		}
	}
	return 0, false
}

func stripNonNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
