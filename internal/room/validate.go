package room

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	codeLength   = 6
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	minNameRunes = 2
	maxNameRunes = 20
)

// NormalizeCode upper-cases a user supplied room code and reports whether it
// can be a code at all.
func NormalizeCode(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != codeLength {
		return "", false
	}
	for _, r := range code {
		if !strings.ContainsRune(codeAlphabet, r) {
			return "", false
		}
	}
	return code, true
}

// NormalizeName trims and NFC-composes a display name. Letters of any
// script, digits and spaces are allowed.
func NormalizeName(raw string) (string, bool) {
	name := norm.NFC.String(strings.Join(strings.Fields(raw), " "))
	if n := utf8.RuneCountInString(name); n < minNameRunes || n > maxNameRunes {
		return "", false
	}
	for _, r := range name {
		if r != ' ' && !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r) {
			return "", false
		}
	}
	return name, true
}

// sameName compares display names case-insensitively.
func sameName(a, b string) bool {
	return cases.Fold().String(a) == cases.Fold().String(b)
}
