// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package youtube

// Video is the normalized view of a YouTube Data API search/videos
// result, matching original_source/app/core/youtube.py's
// search_videos/get_video_details dict shapes.
type Video struct {
	VideoID      string
	Title        string
	Description  string
	ChannelTitle string
	PublishedAt  string
	URL          string
}

// VideoDetails adds statistics/content metadata to a Video, matching
// get_video_details's richer return shape.
type VideoDetails struct {
	Video
	ViewCount    int64
	LikeCount    int64
	Duration     string
	Definition   string
	Caption      string
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

type snippet struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
}

type videosResponse struct {
	Items []struct {
		ID      string  `json:"id"`
		Snippet snippet `json:"snippet"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
			LikeCount string `json:"likeCount"`
		} `json:"statistics"`
		ContentDetails struct {
			Duration   string `json:"duration"`
			Definition string `json:"definition"`
			Caption    string `json:"caption"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type apiError struct {
	Error struct {
		Errors []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}
