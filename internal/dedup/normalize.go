package dedup

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName returns the comparison form of a name: NFC normalized, case
// folded, with runs of white space collapsed to one space.
func NormalizeName(s string) string {
	s = norm.NFC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeEmail trims and case folds an email address.
func NormalizeEmail(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// NormalizePhone keeps only the digits of a phone number.
func NormalizePhone(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// NormalizeAadhar drops spaces and dashes from an Aadhaar number.
func NormalizeAadhar(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return unicode.ToUpper(r)
	}, s)
}
