package validate

import (
	"strings"
	"unicode"
)

// FormatCardNumber groups digits by four and caps the result at 19
// characters (16 digits and 3 spaces).
func FormatCardNumber(in string) string {
	compact := stripSpaces(in)
	var b strings.Builder
	n := 0
	for _, r := range compact {
		if n > 0 && n%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		n++
	}
	return truncate(strings.TrimSpace(b.String()), 19)
}

// FormatExpiry keeps digits only and renders MMYY as MM/YY, max 5 chars.
func FormatExpiry(in string) string {
	d := digits(in)
	if len(d) >= 4 {
		d = d[:2] + "/" + d[2:4] + d[4:]
	}
	return truncate(d, 5)
}

// FormatCVV keeps at most three digits.
func FormatCVV(in string) string {
	return truncate(digits(in), 3)
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
