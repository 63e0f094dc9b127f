// Package textnorm holds the name normalization shared by alias compilation and runtime lookup.
// Both sides must call the same functions so that keys built offline match queries at runtime.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s, decomposes it (NFD), strips combining marks, turns every run of
// non-alphanumeric characters into a single space and trims the result.
//
// Characters without a canonical decomposition (ø, ß, ı, ł) are kept as-is.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		decomposed = strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(decomposed))
	space := false
	for _, r := range decomposed {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		space = true
	}
	return b.String()
}

// Tokens returns the space-separated tokens of Normalize(s).
func Tokens(s string) []string {
	n := Normalize(s)
	if n == "" {
		return nil
	}
	return strings.Split(n, " ")
}

// WordContains reports whether the token sequence of needle appears contiguously inside the token
// sequence of haystack. "Inter" matches "FC Inter Milan" but not "Internacional".
func WordContains(haystack, needle string) bool {
	return ContainsTokens(Tokens(haystack), Tokens(needle))
}

// ContainsTokens is WordContains on pre-tokenized input.
func ContainsTokens(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return true
	}
	return false
}
