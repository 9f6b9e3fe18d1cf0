package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Song is a single resolved play request. It is never modified
// after it has been constructed.
type Song struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Duration    int      `json:"duration"`     // Seconds, 0 when live or unknown
	Locator     string   `json:"locator"`      // Direct media url or local file path
	Local       bool     `json:"local"`        // Locator points to a downloaded file
	Thumbnail   string   `json:"thumbnail"`    // Optional thumbnail url
	WebpageURL  string   `json:"webpage_url"`  // Url of the song's page on the hosting platform
	Requester   string   `json:"requester"`    // Display text of the user that requested the song
	RequesterID string   `json:"requester_id"` // Id of the user that requested the song
	Platform    Platform `json:"platform"`
}

// SongInfo holds the fields required to construct a Song.
type SongInfo struct {
	Title       string
	Duration    int
	Locator     string
	Local       bool
	Thumbnail   string
	WebpageURL  string
	Requester   string
	RequesterID string
	Platform    Platform
}

// NewSong constructs a song from the provided info and
// assigns it a new unique id.
func NewSong(info SongInfo) *Song {
	title := info.Title
	if len(title) == 0 {
		title = "Unknown"
	}
	platform := info.Platform
	if len(platform) == 0 {
		platform = Other
	}
	return &Song{
		ID:          uuid.NewString(),
		Title:       title,
		Duration:    info.Duration,
		Locator:     info.Locator,
		Local:       info.Local,
		Thumbnail:   info.Thumbnail,
		WebpageURL:  info.WebpageURL,
		Requester:   info.Requester,
		RequesterID: info.RequesterID,
		Platform:    platform,
	}
}

// IsLive returns true if the song has no known duration.
func (song *Song) IsLive() bool {
	return song.Duration <= 0
}

// FormatDuration converts the seconds to a string
// formated as h:mm:ss, hours are not added if zero.
// Zero or negative seconds are displayed as Live.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "Live"
	}
	s := ""
	hours := seconds / 3600
	seconds = seconds % 3600
	minutes := seconds / 60
	seconds = seconds % 60
	if hours > 0 {
		s += fmt.Sprintf("%d:%.2d:", hours, minutes)
	} else {
		s += fmt.Sprintf("%d:", minutes)
	}
	return s + fmt.Sprintf("%.2d", seconds)
}
