// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package loops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/melodex/core/internal/providers/lastfm"
)

func TestNormalizeTag(t *testing.T) {
	require.Equal(t, "indie pop", normalizeTag("  Indie Pop  "))
}

func TestCleanTrackNameStripsParenthetical(t *testing.T) {
	require.Equal(t, "Someone Like You", cleanTrackName("Someone Like You (Live at Royal Albert Hall)"))
}

func TestCleanTrackNameStripsRemixSuffix(t *testing.T) {
	require.Equal(t, "Blinding Lights", cleanTrackName("Blinding Lights - Remix"))
}

func TestCleanTrackNameLeavesPlainTitle(t *testing.T) {
	require.Equal(t, "Hey Jude", cleanTrackName("Hey Jude"))
}

func TestFilterTagRejectsNoise(t *testing.T) {
	require.False(t, filterTag("seen live", "adele", nil))
	require.False(t, filterTag("favorites", "adele", nil))
}

func TestFilterTagRejectsDigitsOnly(t *testing.T) {
	require.False(t, filterTag("2023", "adele", nil))
}

func TestFilterTagRejectsArtistName(t *testing.T) {
	require.False(t, filterTag("adele", "adele", nil))
}

func TestFilterTagRejectsSampledTrackName(t *testing.T) {
	require.False(t, filterTag("someone like you", "adele", []string{"Someone Like You"}))
}

func TestFilterTagAcceptsGenre(t *testing.T) {
	require.True(t, filterTag("soul", "adele", []string{"Someone Like You"}))
}

func TestFilterTagShortTrackNameNotExcluded(t *testing.T) {
	// Track names under 4 chars are too likely to collide with real genre
	// tags ("pop", "r&b"), so they are not used to exclude candidates.
	require.True(t, filterTag("pop", "adele", []string{"Pop"}))
}

func TestExtractLastfmTagsNormalizes(t *testing.T) {
	tags := extractLastfmTags([]lastfm.Tag{{Name: "Soul"}, {Name: "  Pop  "}})
	require.Equal(t, []string{"soul", "pop"}, tags)
}

func TestExtractGenresFromLastfmTagsFiltersAndCaps(t *testing.T) {
	tags := []lastfm.Tag{
		{Name: "seen live"},
		{Name: "soul"},
		{Name: "pop"},
		{Name: "uk"},
		{Name: "2011"},
		{Name: "soul"},
		{Name: "ballad"},
	}
	got := extractGenresFromLastfmTags(tags, "adele", 3)
	require.Equal(t, []string{"soul", "pop", "uk"}, got)
}

func TestTopTagsByCountOrdersByFrequency(t *testing.T) {
	order := []string{"pop", "soul", "ballad"}
	counts := map[string]int{"pop": 1, "soul": 3, "ballad": 2}
	got := topTagsByCount(order, counts, 2)
	require.Equal(t, []string{"soul", "ballad"}, got)
}

func TestTopTagsByCountCapsAtMax(t *testing.T) {
	order := []string{"a", "b", "c", "d"}
	counts := map[string]int{"a": 1, "b": 1, "c": 1, "d": 1}
	got := topTagsByCount(order, counts, 2)
	require.Len(t, got, 2)
}
