package model

import (
	"fmt"
	"net/url"
	"strings"
)

type Platform string

const (
	YouTube    Platform = "YouTube"
	Spotify    Platform = "Spotify"
	SoundCloud Platform = "SoundCloud"
	Other      Platform = "Other"
)

// GetPlatforms returns a slice of all
// the known platforms
func GetPlatforms() []Platform {
	return []Platform{
		YouTube,
		Spotify,
		SoundCloud,
		Other,
	}
}

// ParsePlatform converts the provided string to a
// Platform, ignoring case.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range GetPlatforms() {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}
	return Platform(""), fmt.Errorf(
		"the only known platforms are: %v", GetPlatforms(),
	)
}

// IsURL returns true if the provided query looks like
// an absolute http(s) url rather than a search phrase.
func IsURL(query string) bool {
	q := strings.TrimSpace(query)
	if !strings.HasPrefix(q, "http://") && !strings.HasPrefix(q, "https://") {
		return false
	}
	u, err := url.Parse(q)
	return err == nil && len(u.Host) > 0
}

// DetectPlatform determines the platform hosting the provided
// url. Search phrases are searched on YouTube, so YouTube is
// returned for anything that is not a url.
func DetectPlatform(query string) Platform {
	if !IsURL(query) {
		return YouTube
	}
	u, _ := url.Parse(strings.TrimSpace(query))
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")

	switch {
	case host == "youtu.be",
		host == "youtube.com",
		strings.HasSuffix(host, ".youtube.com"):
		return YouTube
	case host == "spotify.com",
		strings.HasSuffix(host, ".spotify.com"),
		host == "spotify.link":
		return Spotify
	case host == "soundcloud.com",
		strings.HasSuffix(host, ".soundcloud.com"),
		host == "snd.sc":
		return SoundCloud
	}
	return Other
}
