// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package normalize

import "strings"

var vowels = map[rune]bool{'a': true, 'e': true, 'i': true, 'o': true, 'u': true}

// variantReplacements is applied in order; each hit also contributes its
// collapsed and vowel-stripped forms, matching the original phonetic
// substitution table (ph->f, ck->k, qu->k, kk->k, sch->sh, sh->s, y->i).
var variantReplacements = []struct{ pattern, replacement string }{
	{"ph", "f"},
	{"ck", "k"},
	{"qu", "k"},
	{"kk", "k"},
	{"sch", "sh"},
	{"sh", "s"},
	{"y", "i"},
}

func stripVowels(s string) string {
	var b strings.Builder
	for _, r := range s {
		if vowels[r] {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func collapseDuplicates(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	runes := []rune(s)
	b.WriteRune(runes[0])
	last := runes[0]
	for _, r := range runes[1:] {
		if r == last {
			continue
		}
		b.WriteRune(r)
		last = r
	}
	return b.String()
}

func applyVariantReplacements(s string) map[string]struct{} {
	variants := make(map[string]struct{})
	for _, vr := range variantReplacements {
		if vr.pattern != "" && strings.Contains(s, vr.pattern) {
			variants[strings.ReplaceAll(s, vr.pattern, vr.replacement)] = struct{}{}
		}
	}
	return variants
}

func generateVariantForms(normalized string) map[string]struct{} {
	variants := make(map[string]struct{})

	if stripped := strings.ReplaceAll(normalized, " ", ""); stripped != "" {
		variants[stripped] = struct{}{}
	}

	collapsed := collapseDuplicates(normalized)
	if collapsed != "" {
		variants[collapsed] = struct{}{}
		if v := stripVowels(collapsed); v != "" {
			variants[v] = struct{}{}
		}
	}

	if v := stripVowels(normalized); v != "" {
		variants[v] = struct{}{}
	}

	for variant := range applyVariantReplacements(normalized) {
		variants[variant] = struct{}{}
		if c := collapseDuplicates(variant); c != "" {
			variants[c] = struct{}{}
		}
		if v := stripVowels(variant); v != "" {
			variants[v] = struct{}{}
		}
	}

	return variants
}

// GenerateAliases returns the set of alias variants for name: the
// trimmed original, the normalized form, its space-removed form, plus
// duplicate-collapsed, vowel-stripped, and phonetic-substitution
// variants (each themselves collapsed and vowel-stripped).
func GenerateAliases(name string) map[string]struct{} {
	result := make(map[string]struct{})
	if name == "" {
		return result
	}

	normalized := Normalize(name)
	add := func(s string) {
		if s != "" {
			result[s] = struct{}{}
		}
	}
	add(strings.TrimSpace(name))
	add(normalized)
	add(strings.ReplaceAll(normalized, " ", ""))

	for v := range generateVariantForms(normalized) {
		add(v)
	}
	return result
}
