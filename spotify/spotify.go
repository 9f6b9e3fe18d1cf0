// Package spotify translates spotify track links into
// youtube music videos that can be streamed.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"rhythmix/resolver"
	"strings"

	"github.com/raitonoberu/ytmusic"
	log "github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

var ErrNotATrack = errors.New("not a spotify track link")

type Configuration struct {
	LogLevel     log.Level `yaml:"LogLevel" validate:"required" env:"LOG_LEVEL"`
	ClientID     string    `yaml:"ClientID" env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string    `yaml:"ClientSecret" env:"SPOTIFY_CLIENT_SECRET"`
}

// Enabled returns true if the spotify credentials are set.
func (c *Configuration) Enabled() bool {
	return len(c.ClientID) > 0 && len(c.ClientSecret) > 0
}

type Translator struct {
	log    *log.Logger
	client *spotify.Client
}

// NewTranslator constructs an object that looks up spotify tracks
// with the client credentials flow and finds them on youtube music.
func NewTranslator(ctx context.Context, config *Configuration) *Translator {
	l := log.New()
	l.SetLevel(config.LogLevel)

	credentials := &clientcredentials.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	l.Debug("Spotify translator created")
	return &Translator{
		log:    l,
		client: spotify.New(credentials.Client(ctx)),
	}
}

// Translate returns the youtube music url of the track the spotify link
// refers to, or a search phrase when youtube music has no match.
func (t *Translator) Translate(ctx context.Context, link string) (string, error) {
	id, err := TrackID(link)
	if err != nil {
		return "", fmt.Errorf("%w: %v", resolver.ErrUnsupported, err)
	}
	track, err := t.client.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		var spotifyErr spotify.Error
		if errors.As(err, &spotifyErr) && spotifyErr.Status == 404 {
			return "", fmt.Errorf("%w: %v", resolver.ErrNotFound, err)
		}
		return "", err
	}
	artists := make([]string, 0, len(track.Artists))
	for _, a := range track.Artists {
		artists = append(artists, a.Name)
	}
	phrase := Phrase(track.Name, artists)

	result, err := ytmusic.TrackSearch(phrase).Next()
	if err != nil {
		t.log.WithField("Phrase", phrase).Debugf("Youtube music search failed: %v", err)
		return phrase, nil
	}
	for _, track := range result.Tracks {
		if len(track.VideoID) > 0 {
			t.log.WithFields(log.Fields{
				"Phrase":  phrase,
				"VideoID": track.VideoID,
			}).Trace("Translated spotify track")
			return "https://music.youtube.com/watch?v=" + track.VideoID, nil
		}
	}
	return phrase, nil
}

// TrackID extracts the track id from a spotify track link,
// either an open.spotify.com url or a spotify:track: uri.
func TrackID(link string) (string, error) {
	link = strings.TrimSpace(link)
	if id, ok := strings.CutPrefix(link, "spotify:track:"); ok && len(id) > 0 {
		return id, nil
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "track" && len(parts[i+1]) > 0 {
			return parts[i+1], nil
		}
	}
	return "", ErrNotATrack
}

// Phrase builds the search phrase of a track.
func Phrase(name string, artists []string) string {
	if len(artists) == 0 {
		return name
	}
	return strings.Join(artists, ", ") + " - " + name
}
