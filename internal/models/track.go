package models

import (
	"fmt"
	"strings"
)

// Reason codes recorded on a [FailedTrack].
const (
	ReasonNotFound      = "not found"
	ReasonSearchFailed  = "search failed"
	ReasonInsertFailed  = "insert failed"
	ReasonDurationRange = "duration out of range"
)

// TrackRequest is one song to look up. Year is null when unknown.
type TrackRequest struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Year   *int   `json:"year"`
}

// Query is the search string sent to YouTube: name and artist separated by one space.
func (t TrackRequest) Query() string {
	return t.Name + " " + t.Artist
}

// Validate requires both name and artist.
func (t TrackRequest) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("track name is required")
	}
	if strings.TrimSpace(t.Artist) == "" {
		return fmt.Errorf("track artist is required")
	}
	return nil
}

func (t TrackRequest) String() string {
	if t.Year != nil {
		return fmt.Sprintf("%s - %s (%d)", t.Artist, t.Name, *t.Year)
	}
	return fmt.Sprintf("%s - %s", t.Artist, t.Name)
}

// ResolvedTrack is a track matched to a YouTube video.
type ResolvedTrack struct {
	TrackRequest
	VideoID string `json:"videoId"`
}

// FailedTrack is a track that could not be added to the playlist.
type FailedTrack struct {
	TrackRequest
	Reason string `json:"reason"`
}

// PlaylistStats summarizes a [PlaylistResult].
type PlaylistStats struct {
	Total  int `json:"total"`
	Added  int `json:"added"`
	Failed int `json:"failed"`
}

// QuotaSummary reports YouTube Data API usage for one materialization.
type QuotaSummary struct {
	Operations map[string]QuotaEntry `json:"operations"`
	TotalCost  int                   `json:"totalCost"`
}

// QuotaEntry is the call count and unit cost charged for one operation kind.
type QuotaEntry struct {
	Calls int `json:"calls"`
	Cost  int `json:"cost"`
}

// PlaylistResult is the outcome of materializing a track list.
//
// Every input track appears exactly once in either Added or Failed, in input order.
type PlaylistResult struct {
	PlaylistID  string          `json:"playlistId"`
	PlaylistURL string          `json:"playlistUrl"`
	Title       string          `json:"title"`
	Added       []ResolvedTrack `json:"addedSongs"`
	Failed      []FailedTrack   `json:"failedSongs"`
	Stats       PlaylistStats   `json:"stats"`
	Quota       *QuotaSummary   `json:"quota,omitempty"`
}

// PlaylistURL returns the public YouTube URL for a playlist id.
func PlaylistURL(id string) string {
	return "https://www.youtube.com/playlist?list=" + id
}
