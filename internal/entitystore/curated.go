// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package entitystore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// TrackWithContext bundles a track with its owning artist, optional
// album, and resolved YouTube link (if any), the shape the curated
// lists cache (C10) reads in a single round trip instead of joining
// per-track on the caller's side.
type TrackWithContext struct {
	Track  *Track
	Artist *Artist
	Album  *Album
	Link   *YouTubeLink
}

const trackContextSelect = `
	SELECT t.id, t.provider_id, t.name, t.artist_id, t.album_id, t.duration_ms, t.popularity,
	       t.preview_url, t.external_url, t.download_path, t.created_at, t.updated_at,
	       a.id, a.provider_id, a.name, a.normalized_name, a.genres, a.image_ref,
	       a.popularity, a.followers, a.bio_summary, a.bio_text, a.created_at, a.updated_at, a.last_refreshed_at,
	       al.id, al.provider_id, al.name, al.artist_id, al.release_date, al.total_tracks, al.label, al.image_ref, al.created_at, al.updated_at,
	       yl.track_provider_id, yl.video_id, yl.download_path, yl.status, yl.file_size, yl.error_message, yl.updated_at
	FROM tracks t
	JOIN artists a ON a.id = t.artist_id
	LEFT JOIN albums al ON al.id = t.album_id
	LEFT JOIN youtube_links yl ON yl.track_provider_id = t.provider_id`

func scanTrackContextRows(rows *sql.Rows) ([]*TrackWithContext, error) {
	var out []*TrackWithContext
	for rows.Next() {
		var t Track
		var tProviderID, previewURL, externalURL, downloadPath sql.NullString
		var a Artist
		var aProviderID, bioSummary, bioText, aImageRef sql.NullString
		var lastRefreshedAt sql.NullTime
		var al Album
		var alID, alArtistID sql.NullInt64
		var alName sql.NullString
		var alTotalTracks sql.NullInt64
		var alProviderID, releaseDate, label, alImageRef sql.NullString
		var alCreatedAt, alUpdatedAt sql.NullTime
		var linkTrackProviderID, videoID, linkDownloadPath, status, errMsg sql.NullString
		var fileSize sql.NullInt64
		var linkUpdatedAt sql.NullTime

		err := rows.Scan(
			&t.ID, &tProviderID, &t.Name, &t.ArtistID, &t.AlbumID, &t.DurationMs, &t.Popularity,
			&previewURL, &externalURL, &downloadPath, &t.CreatedAt, &t.UpdatedAt,
			&a.ID, &aProviderID, &a.Name, &a.NormalizedName, &a.Genres, &aImageRef,
			&a.Popularity, &a.Followers, &bioSummary, &bioText, &a.CreatedAt, &a.UpdatedAt, &lastRefreshedAt,
			&alID, &alProviderID, &alName, &alArtistID, &releaseDate, &alTotalTracks, &label, &alImageRef, &alCreatedAt, &alUpdatedAt,
			&linkTrackProviderID, &videoID, &linkDownloadPath, &status, &fileSize, &errMsg, &linkUpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("entitystore: scan track context row: %w", err)
		}

		t.ProviderID = tProviderID.String
		t.PreviewURL = previewURL.String
		t.ExternalURL = externalURL.String
		t.DownloadPath = downloadPath.String
		a.ProviderID = aProviderID.String
		a.BioSummary = bioSummary.String
		a.BioText = bioText.String
		a.ImageRef = aImageRef.String
		if lastRefreshedAt.Valid {
			a.LastRefreshedAt = lastRefreshedAt.Time
		}

		tc := &TrackWithContext{Track: &t, Artist: &a}
		if alID.Valid {
			al.ID = alID.Int64
			al.ProviderID = alProviderID.String
			al.Name = alName.String
			al.ArtistID = alArtistID.Int64
			al.TotalTracks = int(alTotalTracks.Int64)
			al.ReleaseDate = releaseDate.String
			al.Label = label.String
			al.ImageRef = alImageRef.String
			if alCreatedAt.Valid {
				al.CreatedAt = alCreatedAt.Time
			}
			if alUpdatedAt.Valid {
				al.UpdatedAt = alUpdatedAt.Time
			}
			tc.Album = &al
		}
		if linkTrackProviderID.Valid {
			link := &YouTubeLink{
				TrackProviderID: linkTrackProviderID.String,
				VideoID:         videoID.String,
				DownloadPath:    linkDownloadPath.String,
				Status:          status.String,
				FileSize:        fileSize.Int64,
				ErrorMessage:    errMsg.String,
			}
			if linkUpdatedAt.Valid {
				link.UpdatedAt = linkUpdatedAt.Time
			}
			normalizeLinkStatusOnRead(link)
			tc.Link = link
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// ListTracksWithResolvedLink returns tracks carrying a YouTube link
// whose status has advanced past discovery (link_found or completed),
// ordered by popularity — melodex's substitute for the original
// favorites-with-link list: the Entity Store has no Favorite table to
// filter by (see DESIGN.md), so this surfaces every resolved link
// instead of only a favorited subset.
func (s *Store) ListTracksWithResolvedLink(ctx context.Context, limit int) ([]*TrackWithContext, error) {
	rows, err := s.conn.QueryContext(ctx,
		trackContextSelect+`
		 WHERE yl.video_id IS NOT NULL AND yl.status IN (?, ?)
		 ORDER BY t.popularity DESC, t.id ASC
		 LIMIT ?`,
		LinkStatusLinkFound, LinkStatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list tracks with resolved link: %w", err)
	}
	defer rows.Close()
	return scanTrackContextRows(rows)
}

// ListDownloadedTracks returns tracks with a completed download, either
// recorded directly on the track row or via its YouTube link, ordered
// by popularity.
func (s *Store) ListDownloadedTracks(ctx context.Context, limit int) ([]*TrackWithContext, error) {
	rows, err := s.conn.QueryContext(ctx,
		trackContextSelect+`
		 WHERE t.download_path IS NOT NULL OR yl.status = ?
		 ORDER BY t.popularity DESC, t.id ASC
		 LIMIT ?`,
		LinkStatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list downloaded tracks: %w", err)
	}
	defer rows.Close()
	return scanTrackContextRows(rows)
}

// ListTracksWithoutChartPresence returns tracks that have never
// appeared in a chart rollup, in random order — melodex's substitute
// for the original discovery list: there is no PlayHistory to test
// "not played recently" against, so absence from the chart stats
// rollup stands in as the "hasn't surfaced yet" signal.
func (s *Store) ListTracksWithoutChartPresence(ctx context.Context, limit int) ([]*TrackWithContext, error) {
	rows, err := s.conn.QueryContext(ctx,
		trackContextSelect+`
		 LEFT JOIN track_chart_stats tcs ON tcs.track_id = t.id
		 WHERE tcs.track_id IS NULL
		 ORDER BY random()
		 LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list tracks without chart presence: %w", err)
	}
	defer rows.Close()
	return scanTrackContextRows(rows)
}

// ListTracksAddedSince returns tracks whose created_at is at or after
// since, ordered by popularity — melodex's substitute for the
// original's "top tracks played in the last year": with no play
// history, recency of library addition is the closest local analog.
func (s *Store) ListTracksAddedSince(ctx context.Context, since time.Time, limit int) ([]*TrackWithContext, error) {
	rows, err := s.conn.QueryContext(ctx,
		trackContextSelect+`
		 WHERE t.created_at >= ?
		 ORDER BY t.popularity DESC, t.id ASC
		 LIMIT ?`,
		since, limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list tracks added since: %w", err)
	}
	defer rows.Close()
	return scanTrackContextRows(rows)
}

// ListTracksByChartPresence returns tracks ordered by chart rollup
// strength (most weeks charted first, tie-broken by best position) —
// melodex's substitute for "most played": chart persistence is the
// closest signal the Entity Store has to play counts, since C7 never
// records individual listens.
func (s *Store) ListTracksByChartPresence(ctx context.Context, limit int) ([]*TrackWithContext, error) {
	rows, err := s.conn.QueryContext(ctx,
		trackContextSelect+`
		 JOIN (
			SELECT track_id, MAX(weeks_on_chart) AS weeks_on_chart, MIN(best_position) AS best_position
			FROM track_chart_stats
			GROUP BY track_id
		 ) ranked ON ranked.track_id = t.id
		 ORDER BY ranked.weeks_on_chart DESC, ranked.best_position ASC
		 LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list tracks by chart presence: %w", err)
	}
	defer rows.Close()
	return scanTrackContextRows(rows)
}

// ListTracksByGenres returns tracks whose artist shares at least one of
// the given genres, excluding the named seed artists, ordered by
// popularity — used by the genre-suggestions list to find tracks
// adjacent to the library's own top genres.
func (s *Store) ListTracksByGenres(ctx context.Context, genres []string, excludeArtistIDs []int64, limit int) ([]*TrackWithContext, error) {
	if len(genres) == 0 {
		return nil, nil
	}
	exclude := excludeArtistIDs
	if exclude == nil {
		exclude = []int64{}
	}
	rows, err := s.conn.QueryContext(ctx,
		trackContextSelect+`
		 WHERE list_has_any(a.genres, ?) AND NOT list_contains(?, a.id)
		 ORDER BY t.popularity DESC, t.id ASC
		 LIMIT ?`,
		genres, exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list tracks by genres: %w", err)
	}
	defer rows.Close()
	return scanTrackContextRows(rows)
}

// ListTopArtistsByPopularity returns the library's most popular
// artists, used to seed genre-suggestions when there is no favorited
// artist set to draw genres from (see DESIGN.md).
func (s *Store) ListTopArtistsByPopularity(ctx context.Context, limit int) ([]*Artist, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+artistColumns+` FROM artists ORDER BY popularity DESC, id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list top artists by popularity: %w", err)
	}
	defer rows.Close()
	return scanArtistRows(rows)
}
