package spotify_test

import (
	"rhythmix/spotify"
	"testing"

	"github.com/stretchr/testify/suite"
)

type SpotifyTestSuite struct {
	suite.Suite
}

// TestUnitTrackID extracts track ids from the different
// forms of spotify links.
func (s *SpotifyTestSuite) TestUnitTrackID() {
	links := map[string]string{
		"https://open.spotify.com/track/4cOdK2wGLETKBW3PvgPWqT":              "4cOdK2wGLETKBW3PvgPWqT",
		"https://open.spotify.com/track/4cOdK2wGLETKBW3PvgPWqT?si=abc":       "4cOdK2wGLETKBW3PvgPWqT",
		"https://open.spotify.com/intl-de/track/4cOdK2wGLETKBW3PvgPWqT":      "4cOdK2wGLETKBW3PvgPWqT",
		"spotify:track:4cOdK2wGLETKBW3PvgPWqT":                               "4cOdK2wGLETKBW3PvgPWqT",
	}
	for link, expected := range links {
		id, err := spotify.TrackID(link)
		s.NoError(err, link)
		s.Equal(expected, id, link)
	}
}

// TestUnitTrackIDNotATrack checks that albums and playlists
// are rejected.
func (s *SpotifyTestSuite) TestUnitTrackIDNotATrack() {
	for _, link := range []string{
		"https://open.spotify.com/album/1DFixLWuPkv3KT3TnV35m3",
		"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
		"https://open.spotify.com/track/",
	} {
		_, err := spotify.TrackID(link)
		s.ErrorIs(err, spotify.ErrNotATrack, link)
	}
}

// TestUnitPhrase builds search phrases.
func (s *SpotifyTestSuite) TestUnitPhrase() {
	s.Equal("Snow", spotify.Phrase("Snow", nil))
	s.Equal(
		"Red Hot Chili Peppers - Snow (Hey Oh)",
		spotify.Phrase("Snow (Hey Oh)", []string{"Red Hot Chili Peppers"}),
	)
	s.Equal("A, B - Song", spotify.Phrase("Song", []string{"A", "B"}))
}

// TestUnitEnabled checks that both credentials are required.
func (s *SpotifyTestSuite) TestUnitEnabled() {
	s.False((&spotify.Configuration{}).Enabled())
	s.False((&spotify.Configuration{ClientID: "id"}).Enabled())
	s.True((&spotify.Configuration{ClientID: "id", ClientSecret: "secret"}).Enabled())
}

// TestSpotifyTestSuite runs all tests under
// the SpotifyTestSuite
func TestSpotifyTestSuite(t *testing.T) {
	suite.Run(t, new(SpotifyTestSuite))
}
