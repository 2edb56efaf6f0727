// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

// Package normalize implements the Text Normalizer + Alias Index (C3):
// canonical text normalization, alias variant generation, and the
// trigram/LCS similarity scoring used to decide whether a local
// candidate confidently matches a search query.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize lowercases, applies NFD canonical decomposition, strips
// combining marks (accents), replaces any run of non-alphanumeric
// characters with a single space, and collapses whitespace.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	cleaned := strings.ToLower(strings.TrimSpace(s))
	cleaned = norm.NFD.String(cleaned)
	cleaned = stripCombiningMarks(cleaned)
	cleaned = nonAlnumRun.ReplaceAllString(cleaned, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

func stripCombiningMarks(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
