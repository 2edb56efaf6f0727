// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package youtube

import (
	"sort"
	"strings"

	"github.com/melodex/core/internal/normalize"
)

// noiseTokens are stripped before scoring a candidate title/description,
// matching original_source/app/core/youtube.py's _noise_tokens set.
var noiseTokens = map[string]struct{}{
	"official": {}, "video": {}, "music": {}, "audio": {}, "lyric": {}, "lyrics": {},
	"letra": {}, "letras": {}, "hd": {}, "hq": {}, "4k": {}, "remastered": {}, "live": {},
	"visualizer": {}, "visualiser": {}, "feat": {}, "ft": {}, "featuring": {}, "album": {},
	"full": {}, "version": {}, "clip": {}, "mv": {}, "tv": {}, "radio": {}, "mix": {},
	"remix": {}, "edit": {}, "sub": {}, "espanol": {}, "spanish": {}, "english": {},
	"officially": {}, "topic": {}, "records": {}, "record": {},
}

func tokenize(text string) []string {
	fields := strings.Fields(normalize.Normalize(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, noise := noiseTokens[f]; noise {
			continue
		}
		out = append(out, f)
	}
	return out
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// scoreVideo scores how well a candidate matches the target artist and
// track, or reports ok=false when the candidate should be rejected
// outright (mirrors _filter_music_videos's score_video closure).
func scoreVideo(v Video, artistTokens, trackTokens []string) (score int, ok bool) {
	if len(trackTokens) == 0 {
		return 0, false
	}

	titleNorm := normalize.Normalize(v.Title)
	titleTokens := tokenSet(tokenize(v.Title))
	descTokens := tokenSet(tokenize(v.Description))

	trackHits := 0
	for _, t := range trackTokens {
		if _, ok := titleTokens[t]; ok {
			trackHits++
			continue
		}
		if _, ok := descTokens[t]; ok {
			trackHits++
		}
	}
	artistHits := 0
	for _, t := range artistTokens {
		if _, ok := titleTokens[t]; ok {
			artistHits++
			continue
		}
		if _, ok := descTokens[t]; ok {
			artistHits++
		}
	}

	trackRatio := float64(trackHits) / float64(max(1, len(trackTokens)))
	trackPhrase := strings.Join(trackTokens, " ")
	titleSimilarity := 0.0
	if trackPhrase != "" {
		titleSimilarity = normalize.LongestCommonSubsequenceRatio(trackPhrase, titleNorm)
	}

	if trackRatio < 0.6 && titleSimilarity < 0.6 {
		return 0, false
	}

	score += trackHits * 60
	score += artistHits * 25
	if trackPhrase != "" && strings.Contains(titleNorm, trackPhrase) {
		score += 30
	}
	if strings.Contains(titleNorm, "official") {
		score += 10
	}
	if strings.Contains(titleNorm, "vevo") {
		score += 8
	}

	channel := normalize.Normalize(v.ChannelTitle)
	for _, marker := range []string{"vevo", "official", "musica", "music"} {
		if strings.Contains(channel, marker) {
			score += 6
			break
		}
	}

	return score, true
}

// FilterMusicVideos scores, ranks, and dedupes candidates against an
// (artist, track) target, matching _filter_music_videos.
func FilterMusicVideos(videos []Video, artist, track string) []Video {
	artistTokens := tokenize(artist)
	trackTokens := tokenize(track)
	if len(trackTokens) == 0 {
		return nil
	}

	type scored struct {
		score int
		video Video
	}
	candidates := make([]scored, 0, len(videos))
	for _, v := range videos {
		if score, ok := scoreVideo(v, artistTokens, trackTokens); ok {
			candidates = append(candidates, scored{score: score, video: v})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	seen := make(map[string]struct{}, len(candidates))
	results := make([]Video, 0, len(candidates))
	for _, c := range candidates {
		if c.video.VideoID == "" {
			continue
		}
		if _, dup := seen[c.video.VideoID]; dup {
			continue
		}
		seen[c.video.VideoID] = struct{}{}
		results = append(results, c.video)
	}
	return results
}
