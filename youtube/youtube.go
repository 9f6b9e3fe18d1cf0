// Package youtube resolves queries natively against youtube,
// without any external executable.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"rhythmix/model"
	"rhythmix/resolver"
	"rhythmix/youtube/search"
	"rhythmix/youtube/stream"

	kkdai "github.com/kkdai/youtube/v2"
	log "github.com/sirupsen/logrus"
)

type Configuration struct {
	LogLevel log.Level `yaml:"LogLevel" validate:"required" env:"LOG_LEVEL"`
}

type Youtube struct {
	log    *log.Logger
	search *search.Search
	stream *stream.Stream
}

// NewYoutube constructs an object that handles
// youtube integration
func NewYoutube(config *Configuration) *Youtube {
	l := log.New()
	l.SetLevel(config.LogLevel)
	l.Debug("Youtube backend created")
	return &Youtube{
		log:    l,
		search: search.NewSearch(),
		stream: stream.NewStream(),
	}
}

func (y *Youtube) Name() string {
	return "youtube"
}

// Resolve searches the target on youtube, or fetches the video it
// links to, and returns the direct url of its best audio format.
func (y *Youtube) Resolve(ctx context.Context, target resolver.Target) (*resolver.Media, error) {
	if !target.Search && model.DetectPlatform(target.Query) != model.YouTube {
		return nil, resolver.ErrUnsupported
	}
	videoID, err := y.search.VideoID(ctx, target.Query)
	if err != nil {
		if errors.Is(err, search.ErrNoResults) {
			return nil, fmt.Errorf("%w: %v", resolver.ErrNotFound, err)
		}
		return nil, classify(err)
	}
	video, err := y.stream.Video(ctx, videoID)
	if err != nil {
		return nil, classify(err)
	}
	url, err := y.stream.URL(ctx, video)
	if err != nil {
		if errors.Is(err, stream.ErrNoFormats) {
			return nil, fmt.Errorf("%w: %v", resolver.ErrNoAudioStream, err)
		}
		return nil, classify(err)
	}
	y.log.WithFields(log.Fields{
		"VideoID": video.ID,
		"Title":   video.Title,
	}).Trace("Resolved youtube video")

	thumbnail := ""
	if len(video.Thumbnails) > 0 {
		// NOTE: thumbnails are ordered from the smallest
		thumbnail = video.Thumbnails[len(video.Thumbnails)-1].URL
	}
	return &resolver.Media{
		Title:      video.Title,
		Duration:   int(video.Duration.Seconds()),
		Thumbnail:  thumbnail,
		Locator:    url,
		WebpageURL: "https://www.youtube.com/watch?v=" + video.ID,
		Platform:   model.YouTube,
	}, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, kkdai.ErrLoginRequired),
		resolver.IsBotChallenge(err.Error()):
		return fmt.Errorf("%w: %v", resolver.ErrBackendBlocked, err)
	case errors.Is(err, kkdai.ErrVideoPrivate),
		errors.Is(err, kkdai.ErrInvalidCharactersInVideoID),
		errors.Is(err, kkdai.ErrVideoIDMinLength):
		return fmt.Errorf("%w: %v", resolver.ErrNotFound, err)
	}
	return err
}
