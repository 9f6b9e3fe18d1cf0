package youtube

import (
	"context"
	"errors"
	"rhythmix/resolver"
	"rhythmix/youtube/stream"
	"testing"

	kkdai "github.com/kkdai/youtube/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type YoutubeTestSuite struct {
	suite.Suite
	youtube *Youtube
}

// SetupSuite runs on suite init and creates the backend.
func (s *YoutubeTestSuite) SetupSuite() {
	s.youtube = NewYoutube(&Configuration{LogLevel: logrus.PanicLevel})
}

// TestUnitUnsupported checks that links of other platforms
// are left to the other backends.
func (s *YoutubeTestSuite) TestUnitUnsupported() {
	_, err := s.youtube.Resolve(context.Background(), resolver.Target{
		Query: "https://soundcloud.com/artist/track",
	})
	s.ErrorIs(err, resolver.ErrUnsupported)
}

// TestUnitClassify maps the youtube client errors to
// the resolver's errors.
func (s *YoutubeTestSuite) TestUnitClassify() {
	s.ErrorIs(classify(kkdai.ErrLoginRequired), resolver.ErrBackendBlocked)
	s.ErrorIs(
		classify(errors.New("Sign in to confirm you're not a bot")),
		resolver.ErrBackendBlocked,
	)
	s.ErrorIs(classify(kkdai.ErrVideoPrivate), resolver.ErrNotFound)

	err := errors.New("connection reset by peer")
	s.Equal(err, classify(err))
}

// TestUnitSelectFormat checks that the opus audio format with the
// best audio quality and the smallest video is selected.
func (s *YoutubeTestSuite) TestUnitSelectFormat() {
	formats := kkdai.FormatList{
		{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Quality: "medium", AudioQuality: "AUDIO_QUALITY_LOW", AudioChannels: 2},
		{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, Quality: "hd1080"},
		{ItagNo: 250, MimeType: `audio/webm; codecs="opus"`, Quality: "tiny", AudioQuality: "AUDIO_QUALITY_LOW", AudioChannels: 2},
		{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, Quality: "tiny", AudioQuality: "AUDIO_QUALITY_MEDIUM", AudioChannels: 2},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Quality: "tiny", AudioQuality: "AUDIO_QUALITY_MEDIUM", AudioChannels: 2},
	}
	format, err := stream.SelectFormat(formats)
	s.NoError(err)
	s.Equal(251, format.ItagNo)
}

// TestUnitSelectFormatNoAudio checks that video only
// formats are rejected.
func (s *YoutubeTestSuite) TestUnitSelectFormatNoAudio() {
	_, err := stream.SelectFormat(kkdai.FormatList{
		{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, Quality: "hd1080"},
	})
	s.ErrorIs(err, stream.ErrNoFormats)
}

// TestYoutubeTestSuite runs all tests under
// the YoutubeTestSuite
func TestYoutubeTestSuite(t *testing.T) {
	suite.Run(t, new(YoutubeTestSuite))
}
