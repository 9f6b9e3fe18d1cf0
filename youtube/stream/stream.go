package stream

import (
	"context"
	"errors"
	"strings"

	"github.com/kkdai/youtube/v2"
)

var ErrNoFormats = errors.New("no audio formats found")

type Stream struct {
	yt *youtube.Client
}

// NewStream constructs an object that fetches youtube
// videos and their direct stream urls.
func NewStream() *Stream {
	return &Stream{
		yt: &youtube.Client{},
	}
}

// Video fetches the video identified by the provided id or url.
func (s *Stream) Video(ctx context.Context, id string) (*youtube.Video, error) {
	return s.yt.GetVideoContext(ctx, id)
}

// URL returns the direct url of the video's format that
// best fits the music bot.
func (s *Stream) URL(ctx context.Context, video *youtube.Video) (string, error) {
	format, err := SelectFormat(video.Formats)
	if err != nil {
		return "", err
	}
	return s.yt.GetStreamURLContext(ctx, video, format)
}

// SelectFormat returns the format with audio mimetype, opus codec,
// high audio quality and low video quality, relaxing each of the
// requirements when no format satisfies it.
func SelectFormat(formats youtube.FormatList) (*youtube.Format, error) {
	if formats2 := formats.WithAudioChannels(); len(formats2) > 0 {
		formats = formats2
	} else {
		return nil, ErrNoFormats
	}
	// NOTE: try to get audio formats with opus codecs
	formats2 := make(youtube.FormatList, 0)
	for _, f := range formats {
		t := f.MimeType
		if strings.Contains(t, "opus") && strings.Contains(t, "audio") {
			formats2 = append(formats2, f)
		}
	}
	if len(formats2) > 0 {
		formats = formats2
	}
	// NOTE: try to get the best possible audio quality
	formats2 = make(youtube.FormatList, 0)
	for _, f := range formats {
		if f.AudioQuality == "AUDIO_QUALITY_HIGH" {
			formats2 = append(formats2, f)
		}
	}
	if len(formats2) == 0 {
		for _, f := range formats {
			if f.AudioQuality == "AUDIO_QUALITY_MEDIUM" {
				formats2 = append(formats2, f)
			}
		}
	}
	if len(formats2) > 0 {
		formats = formats2
	}
	// NOTE: try to get the smallest possible video size
	// as video quality is unimportant
	if formats2 := formats.Quality("tiny"); len(formats2) > 0 {
		formats = formats2
	} else if formats2 := formats.Quality("small"); len(formats2) > 0 {
		formats = formats2
	} else if formats2 := formats.Quality("medium"); len(formats2) > 0 {
		formats = formats2
	}
	return &formats[0], nil
}
