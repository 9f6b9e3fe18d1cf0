package voice

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jonas747/dca"
)

// source produces the opus frames of a stream, implemented
// by dca's encode session.
type source interface {
	dca.OpusReader
	Stop() error
	Cleanup()
}

type stream struct {
	track     Track
	source    source
	streaming *dca.StreamingSession
	done      chan error
	// closed once the stream is stopped, a paused dca stream
	// never reports on done
	stopped  chan struct{}
	stopOnce sync.Once
}

// newStream starts encoding the track's media with ffmpeg and
// streaming the opus frames into the provided voice connection.
func newStream(track Track, vc *discordgo.VoiceConnection, config *Configuration) (*stream, error) {
	options := *dca.StdEncodeOptions
	options.RawOutput = true
	options.Bitrate = config.Bitrate
	options.Application = "lowdelay"

	encoding, err := dca.EncodeFile(track.Locator, &options)
	if err != nil {
		return nil, err
	}
	vc.Speaking(true)
	return startStream(track, encoding, vc), nil
}

func startStream(track Track, src source, vc *discordgo.VoiceConnection) *stream {
	// NOTE: dca sends exactly one value once the stream
	// is done, buffer it so the sender never blocks
	done := make(chan error, 1)
	return &stream{
		track:     track,
		source:    src,
		streaming: dca.NewStream(src, vc, done),
		done:      done,
		stopped:   make(chan struct{}),
	}
}

// SetPaused pauses or resumes the stream.
func (s *stream) SetPaused(p bool) {
	s.streaming.SetPaused(p)
}

// Paused returns true if the stream is paused.
func (s *stream) Paused() bool {
	return s.streaming.Paused()
}

// PlaybackPosition returns the duration of
// the track already streamed.
func (s *stream) PlaybackPosition() time.Duration {
	return s.streaming.PlaybackPosition()
}

// Stop stops the encoding, which in turn finishes the stream.
// It may be called more than once.
func (s *stream) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopped)
		s.source.Stop()
	})
}

// Cleanup releases the resources held by the encoding session.
func (s *stream) Cleanup() {
	s.source.Cleanup()
}
