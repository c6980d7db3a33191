package shape

import (
	"math"
	"regexp"
	"strconv"
)

// leadingNumber matches the first signed decimal token, with an optional
// exponent, anywhere in a string. "20x" yields 20, "pos 3.4e2" yields 340.
var leadingNumber = regexp.MustCompile(`[-+]?\d*\.?\d+(?:[eE][-+]?\d+)?`)

// ExtractLeadingNumber pulls the first numeric token out of s.
// The second return is false when s contains no parseable number.
// Numeric filters are defined over this extraction, not over strict typing,
// so values like "20x" still participate in numeric comparisons.
func ExtractLeadingNumber(s string) (float64, bool) {
	match := leadingNumber.FindString(s)
	if match == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// DisplayValue formats a cell for table display: non-integer numbers are
// rounded to 3 decimal places, everything else passes through. Export paths
// (JSON/CSV) must not use this, the underlying rows stay untouched.
func DisplayValue(v Value) string {
	if v.Kind == KindNumber && v.Num != math.Trunc(v.Num) {
		return strconv.FormatFloat(round3(v.Num), 'f', -1, 64)
	}
	return v.Text()
}

func round3(n float64) float64 {
	return math.Round(n*1000) / 1000
}
