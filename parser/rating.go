package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ratingPattern matches the first number in a label such as "4,5 stars",
// "Rated 3.9 stars" or "٤٫٥ نجوم". Digits from any script are accepted.
var ratingPattern = regexp.MustCompile(`\p{Nd}+([.,٫]\p{Nd}+)?`)

// ParseRating extracts the first decimal number found anywhere in text.
// A comma decimal separator is accepted. Returns 0 when no number is present.
func ParseRating(text string) float64 {
	match := ratingPattern.FindString(text)
	if match == "" {
		return 0
	}

	value, err := strconv.ParseFloat(asciiDecimal(match), 64)
	if err != nil {
		return 0
	}
	return value
}

// asciiDecimal rewrites a matched number with ASCII digits and a dot separator
func asciiDecimal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.IsDigit(r):
			b.WriteRune('0' + digitValue(r))
		default:
			b.WriteByte('.')
		}
	}
	return b.String()
}

// digitValue returns the value of a decimal digit rune. Unicode allocates
// every decimal digit set as a contiguous run of ten, zero first.
func digitValue(r rune) rune {
	zero := r
	for zero > 0 && unicode.IsDigit(zero-1) {
		zero--
	}
	return (r - zero) % 10
}
