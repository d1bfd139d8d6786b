package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var multipliers = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
}

// ParseCount converts an engagement count such as "1,234", "2.5K" or "3M"
// into an integer. Anything it cannot read is 0.
func ParseCount(text string) int64 {
	s := strings.ToUpper(strings.TrimSpace(text))
	s = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return 0
	}

	mult := 1.0
	if m, ok := multipliers[s[len(s)-1]]; ok {
		mult = m
		s = s[:len(s)-1]
	}

	v, ok := ParseDecimal(s)
	if !ok {
		return 0
	}
	v = math.Round(v * mult)
	if v >= math.MaxInt64 {
		return 0
	}
	return int64(v)
}

// ParseDecimal accepts plain non-negative decimals only: digits with at
// most one dot. Signs, exponents, hex and Inf/NaN are rejected.
func ParseDecimal(s string) (float64, bool) {
	if s == "" || s == "." || strings.Count(s, ".") > 1 || strings.Trim(s, "0123456789.") != "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var leadingCount = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*([kmb])?\b`)

// ParseReplies reads the count out of reply-button text like "12 replies"
// or "1.2K replies".
func ParseReplies(text string) int64 {
	m := leadingCount.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	return ParseCount(m[1] + m[2])
}
