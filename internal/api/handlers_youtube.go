// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/melodex/core/internal/entitystore"
)

const youtubeWatchBaseURL = "https://www.youtube.com/watch?v="

// youtubeLinkItem is the per-track shape shared by the refresh and
// bulk-status endpoints.
type youtubeLinkItem struct {
	SpotifyTrackID string `json:"spotify_track_id"`
	Status         string `json:"status"`
	VideoID        string `json:"youtube_video_id,omitempty"`
	VideoURL       string `json:"youtube_url,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

func linkToItem(trackProviderID string, link *entitystore.YouTubeLink) youtubeLinkItem {
	item := youtubeLinkItem{SpotifyTrackID: trackProviderID}
	if link == nil {
		item.Status = entitystore.LinkStatusPending
		return item
	}
	item.Status = link.Status
	item.ErrorMessage = link.ErrorMessage
	if !link.UpdatedAt.IsZero() {
		item.UpdatedAt = link.UpdatedAt.Format(time.RFC3339)
	}
	if link.VideoID != "" {
		item.VideoID = link.VideoID
		item.VideoURL = youtubeWatchBaseURL + link.VideoID
	}
	return item
}

// refreshTrackRequest is POST /youtube/track/{track_id}/refresh's body.
type refreshTrackRequest struct {
	Artist string `json:"artist" validate:"required"`
	Track  string `json:"track" validate:"required"`
	Album  string `json:"album"`
}

// RefreshTrack resolves (or re-resolves) a single track's YouTube
// link synchronously, driving internal/ytlink.Resolver directly.
// Grounded on original_source/app/api/youtube.py's refresh endpoint.
func (h *Handler) RefreshTrack(w http.ResponseWriter, r *http.Request) {
	trackProviderID := chi.URLParam(r, "track_id")
	if trackProviderID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "track_id is required", nil)
		return
	}

	var req refreshTrackRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	start := time.Now()
	link, err := h.resolver.Resolve(r.Context(), trackProviderID, req.Artist, req.Track, req.Album)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "RESOLVE_FAILED", "could not resolve youtube link", err)
		return
	}
	respondSuccess(w, linkToItem(trackProviderID, link), false, time.Since(start))
}

// bulkLinksRequest is POST /youtube/links's body.
type bulkLinksRequest struct {
	SpotifyTrackIDs []string `json:"spotify_track_ids" validate:"required,min=1,max=200"`
}

// BulkLinkStatus reports the current YouTube link status for a batch
// of tracks, without triggering resolution — a track with no link row
// yet is reported as "pending". Grounded on
// original_source/app/api/youtube.py's bulk status endpoint.
func (h *Handler) BulkLinkStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkLinksRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	start := time.Now()
	items := make([]youtubeLinkItem, 0, len(req.SpotifyTrackIDs))
	for _, id := range req.SpotifyTrackIDs {
		link, err := h.store.GetYouTubeLink(r.Context(), id)
		if err != nil {
			items = append(items, linkToItem(id, nil))
			continue
		}
		items = append(items, linkToItem(id, link))
	}
	respondSuccess(w, map[string]interface{}{"items": items}, false, time.Since(start))
}

// PrefetchAlbum schedules background resolution for every track on an
// album that has no resolved link yet, returning immediately.
// Grounded on original_source/app/core/youtube_prefetch.py's
// per-album prefetch trigger.
func (h *Handler) PrefetchAlbum(w http.ResponseWriter, r *http.Request) {
	albumProviderID := chi.URLParam(r, "album_id")
	if albumProviderID == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "album_id is required", nil)
		return
	}

	start := time.Now()
	album, err := h.store.GetAlbumByProviderID(r.Context(), albumProviderID)
	if err != nil || album == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "album not found", err)
		return
	}

	tracks, err := h.store.ListTracksByAlbum(r.Context(), album.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE_ERROR", "could not list album tracks", err)
		return
	}

	var pending []*entitystore.Track
	for _, t := range tracks {
		link, err := h.store.GetYouTubeLink(r.Context(), t.ProviderID)
		if err == nil && link != nil &&
			(link.Status == entitystore.LinkStatusLinkFound || link.Status == entitystore.LinkStatusCompleted) {
			continue
		}
		pending = append(pending, t)
	}

	if len(pending) == 0 {
		respondSuccess(w, map[string]string{"status": "cached"}, true, time.Since(start))
		return
	}

	artist, err := h.store.GetArtistByID(r.Context(), album.ArtistID)
	artistName := ""
	if err == nil && artist != nil {
		artistName = artist.Name
	}

	go h.resolvePendingAlbumTracks(pending, artistName, album.Name)

	respondSuccess(w, map[string]string{"status": "scheduled"}, false, time.Since(start))
}

// resolvePendingAlbumTracks runs after PrefetchAlbum has already
// responded, so it uses a fresh background context rather than the
// request's (which is cancelled once the handler returns).
func (h *Handler) resolvePendingAlbumTracks(tracks []*entitystore.Track, artistName, albumName string) {
	ctx := context.Background()
	for _, t := range tracks {
		if _, err := h.resolver.Resolve(ctx, t.ProviderID, artistName, t.Name, albumName); err != nil {
			h.log.Warn().Err(err).Str("track", t.ProviderID).Msg("album prefetch resolve failed")
		}
	}
}
