package aggregate

import (
	"strconv"
	"time"
)

// Helpers for probing the OCS's inconsistently nested, partially undocumented
// response shapes. Every accessor tolerates missing or mistyped fields by
// returning the zero value.

// dig walks a nested key path through maps, returning nil when any hop is
// missing or not an object.
func dig(m map[string]any, path ...string) any {
	var cur any = m
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	return cur
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

// asText renders a scalar as its string form. Numeric identifiers (ICCIDs,
// IMSIs) occasionally arrive as JSON numbers; they are formatted without an
// exponent.
func asText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

// textPtr is asText returning a pointer, nil when absent.
func textPtr(v any) *string {
	s, ok := asText(v)
	if !ok {
		return nil
	}
	return &s
}

// numberPtr returns a pointer to v only when v is a JSON number. Unlike
// CoerceNumeric it does not attempt string or object coercion; it is used
// where the upstream contract is a plain number (byte counts, reseller cost).
func numberPtr(v any) *float64 {
	f, ok := v.(float64)
	if !ok || !isFinite(f) {
		return nil
	}
	return &f
}

func boolPtr(v any) *bool {
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}

// asID coerces an identifier field (JSON number or numeric string) to int64.
func asID(v any) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err == nil {
			return n, true
		}
	}
	return 0, false
}

// timestampFormats are the layouts the OCS has been observed to emit.
var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp parses an upstream timestamp, returning the zero time when
// the value is absent or unparseable. The zero time sorts before every real
// timestamp, which gives missing activation dates their epoch-like ordering.
func parseTimestamp(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	for _, layout := range timestampFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
