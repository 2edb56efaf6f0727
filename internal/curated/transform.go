// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package curated

import (
	"regexp"

	"github.com/melodex/core/internal/entitystore"
)

var youtubeVideoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// isValidYouTubeVideoID mirrors smart_lists.py's
// _is_valid_youtube_video_id: an 11-character id drawn from the
// standard YouTube id alphabet. A link row can carry a stale or
// truncated id from an earlier resolver version, so every read
// revalidates rather than trusting the stored value.
func isValidYouTubeVideoID(id string) bool {
	return youtubeVideoIDPattern.MatchString(id)
}

// trackToResult flattens a joined entitystore row into the curated
// list's public Track shape, grounded on smart_lists.py's
// _track_to_dict: album art wins over artist art, a track's own
// download_path wins over its YouTube link's, and a present download
// path with no recorded status is reported as completed.
func trackToResult(tc *entitystore.TrackWithContext) Track {
	t := tc.Track
	out := Track{
		ID:         t.ID,
		ProviderID: t.ProviderID,
		Name:       t.Name,
		DurationMs: t.DurationMs,
		Popularity: t.Popularity,
		ArtistName: tc.Artist.Name,
	}
	if tc.Artist.ProviderID != "" {
		out.ArtistProviderID = tc.Artist.ProviderID
	}
	out.ImageURL = tc.Artist.ImageRef

	if tc.Album != nil {
		out.AlbumName = tc.Album.Name
		out.AlbumProviderID = tc.Album.ProviderID
		if tc.Album.ImageRef != "" {
			out.ImageURL = tc.Album.ImageRef
		}
	}

	downloadPath := t.DownloadPath
	status := ""
	if tc.Link != nil {
		if isValidYouTubeVideoID(tc.Link.VideoID) {
			out.VideoID = tc.Link.VideoID
		}
		if downloadPath == "" {
			downloadPath = tc.Link.DownloadPath
		}
		status = tc.Link.Status
	}
	if downloadPath != "" && status == "" {
		status = entitystore.LinkStatusCompleted
	}
	out.DownloadPath = downloadPath
	out.DownloadStatus = status
	return out
}

func toResults(rows []*entitystore.TrackWithContext) []Track {
	out := make([]Track, 0, len(rows))
	for _, tc := range rows {
		out = append(out, trackToResult(tc))
	}
	return out
}
