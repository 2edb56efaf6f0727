// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchesGenreHintAcceptsDirectTag(t *testing.T) {
	require.True(t, matchesGenreHint("hip hop", []string{"hip hop"}))
}

func TestMatchesGenreHintAcceptsRelatedKeyword(t *testing.T) {
	require.True(t, matchesGenreHint("hip hop", []string{"trap"}))
}

func TestMatchesGenreHintRejectsUnrelatedGenre(t *testing.T) {
	require.False(t, matchesGenreHint("hip hop", []string{"country", "bluegrass"}))
}

func TestMatchesGenreHintSkipsFilterForUnknownTag(t *testing.T) {
	require.True(t, matchesGenreHint("some obscure microgenre", []string{"anything"}))
}
