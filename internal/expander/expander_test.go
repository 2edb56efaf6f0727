// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package expander

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNullAlbumIDValidWhenNonZero(t *testing.T) {
	id := nullAlbumID(42)
	require.True(t, id.Valid)
	require.Equal(t, int64(42), id.Int64)
}

func TestNullAlbumIDInvalidWhenZero(t *testing.T) {
	id := nullAlbumID(0)
	require.False(t, id.Valid)
}
