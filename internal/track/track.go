// Package track defines the catalog data structures shared by the player and the UI.
package track

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// Track is a playable media item supplied by the remote catalog.
// The controller never mutates a Track.
type Track struct {
	ID       string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Artist   string `json:"artist" yaml:"artist"`
	Album    string `json:"album,omitempty" yaml:"album,omitempty"`
	AlbumID  string `json:"albumId,omitempty" yaml:"album_id,omitempty"`
	AudioURL string `json:"audioUrl" yaml:"audio_url"` // Media locator, may be empty
	Duration int    `json:"duration" yaml:"duration"`  // Seconds
	Artwork  string `json:"artwork,omitempty" yaml:"artwork,omitempty"`
}

// IsPlayable reports whether the track carries a locator the audio engine can open:
// an http(s) or file URL, or an absolute filesystem path.
func (t *Track) IsPlayable() bool {
	loc := strings.TrimSpace(t.AudioURL)
	if loc == "" {
		return false
	}

	if filepath.IsAbs(loc) {
		return true
	}

	u, err := url.Parse(loc)
	if err != nil {
		return false
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "file":
		return u.Path != ""
	default:
		return false
	}
}

// DurationValue returns the catalog duration as a time.Duration.
func (t *Track) DurationValue() time.Duration {
	if t.Duration <= 0 {
		return 0
	}
	return time.Duration(t.Duration) * time.Second
}

// DisplayName formats the track as "Artist - Title", falling back to whichever is set.
func (t *Track) DisplayName() string {
	switch {
	case t.Artist != "" && t.Title != "":
		return t.Artist + " - " + t.Title
	case t.Title != "":
		return t.Title
	case t.Artist != "":
		return t.Artist
	default:
		return t.ID
	}
}

// FilterPlayable returns the playable tracks in their original order.
func FilterPlayable(tracks []Track) []Track {
	result := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if t.IsPlayable() {
			result = append(result, t)
		}
	}
	return result
}

// IndexOf returns the position of the first track with the given id, or -1.
func IndexOf(tracks []Track, id string) int {
	for i := range tracks {
		if tracks[i].ID == id {
			return i
		}
	}
	return -1
}

// IDs returns the identifiers of the tracks in order.
func IDs(tracks []Track) []string {
	ids := make([]string, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}
	return ids
}
