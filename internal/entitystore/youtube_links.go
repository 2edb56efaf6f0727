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

const youtubeLinkColumns = `track_provider_id, video_id, download_path, status, file_size, error_message, updated_at`

// UpsertYouTubeLink inserts or overwrites the one-to-one YouTubeLink row
// for a track's provider id. Status normalization (discovering a
// video_id while status is missing/video_not_found advances it to
// link_found) is applied here per the recorded Open Question decision,
// so the stored state and the read-time view never diverge.
func (s *Store) UpsertYouTubeLink(ctx context.Context, l *YouTubeLink) (*YouTubeLink, error) {
	l.UpdatedAt = time.Now().UTC()
	normalizeLinkStatusOnWrite(l)

	query := `INSERT INTO youtube_links (` + youtubeLinkColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (track_provider_id) DO UPDATE SET
			video_id = EXCLUDED.video_id,
			download_path = EXCLUDED.download_path,
			status = EXCLUDED.status,
			file_size = EXCLUDED.file_size,
			error_message = EXCLUDED.error_message,
			updated_at = EXCLUDED.updated_at`

	_, err := s.conn.ExecContext(ctx, query,
		l.TrackProviderID, nullableString(l.VideoID), nullableString(l.DownloadPath),
		l.Status, l.FileSize, nullableString(l.ErrorMessage), l.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("entitystore: upsert youtube link: %w", err)
	}
	return l, nil
}

// normalizeLinkStatusOnWrite advances a stale error/not-found/missing
// status to link_found the moment a video id is discovered, rather than
// waiting for read-time normalization (spec §9 decision).
func normalizeLinkStatusOnWrite(l *YouTubeLink) {
	if l.VideoID == "" {
		return
	}
	switch l.Status {
	case LinkStatusError, LinkStatusVideoNotFound, LinkStatusMissing:
		l.Status = LinkStatusLinkFound
	}
}

// normalizeLinkStatusOnRead applies the same precedence at read time,
// for rows written before this rule existed or by a future writer that
// skips UpsertYouTubeLink.
func normalizeLinkStatusOnRead(l *YouTubeLink) {
	if l.DownloadPath != "" {
		l.Status = LinkStatusCompleted
		return
	}
	normalizeLinkStatusOnWrite(l)
}

// GetYouTubeLink looks up the link row for a track's provider id.
func (s *Store) GetYouTubeLink(ctx context.Context, trackProviderID string) (*YouTubeLink, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+youtubeLinkColumns+` FROM youtube_links WHERE track_provider_id = ?`, trackProviderID)

	var l YouTubeLink
	var videoID, downloadPath, errorMessage sql.NullString
	err := row.Scan(&l.TrackProviderID, &videoID, &downloadPath, &l.Status, &l.FileSize, &errorMessage, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("entitystore: scan youtube link: %w", err)
	}
	l.VideoID = videoID.String
	l.DownloadPath = downloadPath.String
	l.ErrorMessage = errorMessage.String
	normalizeLinkStatusOnRead(&l)
	return &l, nil
}

// ListYouTubeLinksByStatus returns links in the given status, used by
// curated lists (downloaded, favorites-with-link) and the prefetch loop.
func (s *Store) ListYouTubeLinksByStatus(ctx context.Context, status string, limit int) ([]*YouTubeLink, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+youtubeLinkColumns+` FROM youtube_links WHERE status = ? ORDER BY updated_at DESC LIMIT ?`,
		status, limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list youtube links by status: %w", err)
	}
	defer rows.Close()

	var out []*YouTubeLink
	for rows.Next() {
		var l YouTubeLink
		var videoID, downloadPath, errorMessage sql.NullString
		if err := rows.Scan(&l.TrackProviderID, &videoID, &downloadPath, &l.Status, &l.FileSize, &errorMessage, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("entitystore: scan youtube link row: %w", err)
		}
		l.VideoID = videoID.String
		l.DownloadPath = downloadPath.String
		l.ErrorMessage = errorMessage.String
		normalizeLinkStatusOnRead(&l)
		out = append(out, &l)
	}
	return out, rows.Err()
}

// ListYouTubeLinksNeedingRetry returns links eligible for another
// resolution attempt: status missing (no cooldown), video_not_found
// older than notFoundCooldown, or error older than errorCooldown. Used
// by the resolver's prefetch loop (C7).
func (s *Store) ListYouTubeLinksNeedingRetry(ctx context.Context, errorCooldown, notFoundCooldown time.Duration, limit int) ([]*YouTubeLink, error) {
	now := time.Now().UTC()
	errorCutoff := now.Add(-errorCooldown)
	notFoundCutoff := now.Add(-notFoundCooldown)
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+youtubeLinkColumns+` FROM youtube_links
		 WHERE status = ?
		    OR (status = ? AND updated_at < ?)
		    OR (status = ? AND updated_at < ?)
		 ORDER BY updated_at ASC LIMIT ?`,
		LinkStatusMissing,
		LinkStatusVideoNotFound, notFoundCutoff,
		LinkStatusError, errorCutoff,
		limit)
	if err != nil {
		return nil, fmt.Errorf("entitystore: list youtube links needing retry: %w", err)
	}
	defer rows.Close()

	var out []*YouTubeLink
	for rows.Next() {
		var l YouTubeLink
		var videoID, downloadPath, errorMessage sql.NullString
		if err := rows.Scan(&l.TrackProviderID, &videoID, &downloadPath, &l.Status, &l.FileSize, &errorMessage, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("entitystore: scan youtube link retry row: %w", err)
		}
		l.VideoID = videoID.String
		l.DownloadPath = downloadPath.String
		l.ErrorMessage = errorMessage.String
		out = append(out, &l)
	}
	return out, rows.Err()
}
