// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package normalize

import "strings"

// stopWords are short connector words excluded when counting shared
// meaningful tokens between a query and a candidate.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {},
	"de": {}, "del": {}, "la": {}, "el": {}, "los": {}, "las": {}, "y": {},
}

func trigrams(s string) map[string]int {
	padded := "  " + s + "  "
	runes := []rune(padded)
	grams := make(map[string]int)
	for i := 0; i+3 <= len(runes); i++ {
		grams[string(runes[i:i+3])]++
	}
	return grams
}

// TrigramSimilarity returns a Sorensen-Dice coefficient over the
// character trigram multisets of a and b, in [0, 1].
func TrigramSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	ga, gb := trigrams(a), trigrams(b)
	var shared, total int
	for g, ca := range ga {
		total += ca
		if cb, ok := gb[g]; ok {
			if ca < cb {
				shared += ca
			} else {
				shared += cb
			}
		}
	}
	for _, cb := range gb {
		total += cb
	}
	if total == 0 {
		return 0
	}
	return 2 * float64(shared) / float64(total)
}

func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// LongestCommonSubsequenceRatio returns the length of the longest common
// subsequence of a and b divided by the length of the longer string.
func LongestCommonSubsequenceRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	if longer == 0 {
		return 0
	}
	return float64(lcsLength(ra, rb)) / float64(longer)
}

// Score returns the similarity of a normalized query against a
// normalized candidate string as the greater of their trigram
// similarity and their longest-common-subsequence ratio.
func Score(normalizedQuery, normalizedCandidate string) float64 {
	t := TrigramSimilarity(normalizedQuery, normalizedCandidate)
	l := LongestCommonSubsequenceRatio(normalizedQuery, normalizedCandidate)
	if l > t {
		return l
	}
	return t
}

func meaningfulTokens(normalized string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(normalized) {
		if len(tok) < 3 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

func sharedTokenCount(a, b map[string]struct{}) int {
	n := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			n++
		}
	}
	return n
}

// IsConfidentMatch decides whether a normalized candidate confidently
// matches a normalized query: the similarity score must be at least
// 0.3, and the pair must share at least one meaningful token (length
// >= 3, not a stop word). Single-token queries are satisfied by that
// one shared token; multi-token queries additionally require either
// two or more shared tokens or an aggregate score of at least 0.78.
func IsConfidentMatch(normalizedQuery, normalizedCandidate string) bool {
	score := Score(normalizedQuery, normalizedCandidate)
	if score < 0.3 {
		return false
	}

	queryTokens := meaningfulTokens(normalizedQuery)
	candidateTokens := meaningfulTokens(normalizedCandidate)
	shared := sharedTokenCount(queryTokens, candidateTokens)
	if shared == 0 {
		return false
	}

	if len(queryTokens) <= 1 {
		return true
	}
	return shared >= 2 || score >= 0.78
}
