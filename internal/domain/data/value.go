package data

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// decimalPattern accepts plain decimal numbers only: no hex, no inf/nan,
// no digit separators.
var decimalPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// CoerceLiteral turns raw imported text into a row value.
//
//   - empty text, NULL or null  -> nil
//   - a full decimal number     -> float64
//   - text wrapped in matching ' or " quotes has them stripped first
//   - everything else           -> string
func CoerceLiteral(raw string) interface{} {
	s := StripQuotes(strings.TrimSpace(raw))
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	if f, ok := ParseNumber(s); ok {
		return f
	}
	return s
}

// StripQuotes removes one pair of matching surrounding quotes
func StripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '\'' || first == '"' || first == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// ParseNumber parses s as a decimal number
func ParseNumber(s string) (float64, bool) {
	if !decimalPattern.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToFloat normalizes any numeric Go value to float64
func ToFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	}
	return 0, false
}

// FormatValue renders a value the way it compares as a string:
// integral floats lose their fraction, nil renders as "null".
func FormatValue(v interface{}) string {
	if v == nil {
		return "null"
	}
	if f, ok := ToFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Equal compares a stored value with a literal the loose way imported data
// demands: it matches if the string forms are identical or if both sides are
// numbers with the same value.
func Equal(stored, literal interface{}) bool {
	if stored == nil || literal == nil {
		return stored == nil && literal == nil
	}
	if FormatValue(stored) == FormatValue(literal) {
		return true
	}
	a, okA := numericValue(stored)
	b, okB := numericValue(literal)
	return okA && okB && a == b
}

// Compare orders two values: nil first, then numbers (including strings
// holding a decimal number), then strings. Returns -1, 0 or 1.
func Compare(a, b interface{}) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	fa, okA := numericValue(a)
	fb, okB := numericValue(b)
	switch {
	case okA && okB:
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(FormatValue(a), FormatValue(b))
}

// numericValue accepts real numbers and strings holding a decimal number
func numericValue(v interface{}) (float64, bool) {
	if f, ok := ToFloat(v); ok {
		return f, true
	}
	if s, ok := v.(string); ok {
		return ParseNumber(strings.TrimSpace(s))
	}
	return 0, false
}

// TypeOf names the inferred type of a value: "number", "text" or "null"
func TypeOf(v interface{}) string {
	if v == nil {
		return "null"
	}
	if _, ok := ToFloat(v); ok {
		return "number"
	}
	return "text"
}
