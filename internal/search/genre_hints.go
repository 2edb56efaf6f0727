// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package search

import "strings"

// genreHints is a small static table of tag -> related keyword groups
// used by the external fanout's "off-genre per lightweight keyword
// rules" filter (spec.md §4.9 step 3). It is deliberately incomplete:
// original_source never formalized this beyond a handful of hand-tuned
// cases, and there is no authoritative genre ontology to fall back on
// for a personal library aggregator. New tags fall through to the
// "no hint, don't filter" branch rather than being rejected.
var genreHints = map[string][]string{
	"hip hop": {"rap", "trap", "boom bap", "gangsta", "hip-hop"},
	"rap":     {"hip hop", "hip-hop", "trap", "boom bap", "gangsta"},
	"rock":    {"alternative", "indie rock", "punk", "metal", "grunge"},
	"metal":   {"rock", "metalcore", "thrash", "death metal", "doom"},
	"pop":     {"dance pop", "electropop", "synthpop", "indie pop"},
	"electronic": {"edm", "house", "techno", "trance", "dubstep"},
	"jazz":    {"swing", "bebop", "fusion", "smooth jazz"},
	"country": {"americana", "bluegrass", "honky tonk", "outlaw country"},
	"folk":    {"americana", "singer-songwriter", "acoustic"},
	"r&b":     {"soul", "neo soul", "funk", "rnb"},
}

// matchesGenreHint reports whether candidateGenres plausibly belongs to
// the same family as queryTag. When queryTag has no entry in the hint
// table, the filter is skipped (no false rejections from an
// incomplete table) and this returns true.
func matchesGenreHint(queryTag string, candidateGenres []string) bool {
	tag := strings.ToLower(strings.TrimSpace(queryTag))
	hints, ok := genreHints[tag]
	if !ok {
		return true
	}
	for _, g := range candidateGenres {
		lg := strings.ToLower(g)
		if strings.Contains(lg, tag) || strings.Contains(tag, lg) {
			return true
		}
		for _, h := range hints {
			if strings.Contains(lg, h) || strings.Contains(h, lg) {
				return true
			}
		}
	}
	return false
}
