// Package player drives the playback of every chat: it moves songs
// from the chats' queues into their voice calls and back to idle.
package player

import (
	"context"
	"errors"
	"fmt"
	"rhythmix/model"
	"rhythmix/queue"
	"rhythmix/resolver"
	"rhythmix/voice"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrNothingPlaying = errors.New("nothing is playing")

type Configuration struct {
	LogLevel log.Level `yaml:"LogLevel" validate:"required" env:"LOG_LEVEL"`
	// MaxSongRetries is how many times a song that failed to
	// start is put back to the front of the queue before it is dropped.
	MaxSongRetries int `yaml:"MaxSongRetries" validate:"min=0,max=10"`
	// CallTimeout bounds every single voice call operation.
	CallTimeout time.Duration `yaml:"CallTimeout"`
	// HistoryTimeout bounds recording a started song.
	HistoryTimeout time.Duration `yaml:"HistoryTimeout"`
}

// Resolver translates queries into playable media.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*resolver.Media, error)
	// Release frees the resources held by a song that
	// left the playback.
	Release(song *model.Song)
}

// History records every song that started playing.
type History interface {
	RecordPlay(ctx context.Context, chatID string, song *model.Song) error
}

// Notifier is informed of the transitions that happen without a
// direct request, so the users can be told about them. Its methods
// are called with the chat held and must not block.
type Notifier interface {
	NowPlaying(chatID string, song *model.Song)
	SongFailed(chatID string, song *model.Song, err error)
	Finished(chatID string)
}

// Requester identifies the user that requested a song.
type Requester struct {
	ID   string
	Name string
}

// Outcome describes what happened with a requested song.
type Outcome struct {
	Song     *model.Song
	Queued   bool // The song was added to the queue, another one is playing
	Position int  // Position of the queued song, starting with 1
}

type Controller struct {
	log      *log.Logger
	config   *Configuration
	store    *queue.Store
	resolver Resolver
	calls    voice.Calls
	history  History
	notifier Notifier
	wg       sync.WaitGroup
}

// NewController constructs an object that controls the playback of
// all the chats in the store.
func NewController(config *Configuration, store *queue.Store, r Resolver, calls voice.Calls) *Controller {
	l := log.New()
	l.SetLevel(config.LogLevel)
	l.Debug("Playback controller created")
	return &Controller{
		log:      l,
		config:   config,
		store:    store,
		resolver: r,
		calls:    calls,
	}
}

// SetHistory sets the history that records the started songs.
func (c *Controller) SetHistory(history History) {
	c.history = history
}

// SetNotifier sets the notifier informed of the
// asynchronous transitions.
func (c *Controller) SetNotifier(notifier Notifier) {
	c.notifier = notifier
}

// Run handles the voice calls' events until the context is done.
func (c *Controller) Run(ctx context.Context) {
	c.log.Info("Playback controller running")
	defer c.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			c.log.Info("Playback controller stopped")
			return
		case event, ok := <-c.calls.Events():
			if !ok {
				return
			}
			c.wg.Add(1)
			// NOTE: the chat's lock orders the handling of events
			// and requests, so events of different chats may be
			// handled in parallel.
			go func() {
				defer c.wg.Done()
				c.handle(ctx, event)
			}()
		}
	}
}

func (c *Controller) handle(ctx context.Context, event voice.Event) {
	l := c.log.WithFields(log.Fields{
		"ChatID":  event.ChatID,
		"TrackID": event.TrackID,
	})
	if event.Disconnected {
		l.Debug("Voice call lost")
		if err := c.disconnected(ctx, event.ChatID); err != nil {
			l.Warnf("Failed to reset the chat: %v", err)
		}
		return
	}
	if event.Err != nil {
		l.Warnf("Stream ended with error: %v", event.Err)
	}
	if _, err := c.OnStreamEnded(ctx, event.ChatID, event.TrackID); err != nil {
		l.Warnf("Failed to advance the queue: %v", err)
	}
}

// RequestPlay resolves the query and plays the song in the chat, or
// adds it to the chat's queue if another song is playing. The query is
// resolved before the chat is held, so a slow resolve does not block
// the other operations of the chat.
func (c *Controller) RequestPlay(ctx context.Context, chatID string, query string, requester Requester) (*Outcome, error) {
	l := c.log.WithFields(log.Fields{
		"ChatID": chatID,
		"Query":  query,
	})
	media, err := c.resolver.Resolve(ctx, query)
	if err != nil {
		l.Warnf("Failed to resolve: %v", err)
		return nil, err
	}
	song := model.NewSong(model.SongInfo{
		Title:       media.Title,
		Duration:    media.Duration,
		Locator:     media.Locator,
		Local:       media.Local,
		Thumbnail:   media.Thumbnail,
		WebpageURL:  media.WebpageURL,
		Requester:   requester.Name,
		RequesterID: requester.ID,
		Platform:    media.Platform,
	})
	outcome, err := c.PlaySong(ctx, chatID, song)
	if err != nil {
		c.resolver.Release(song)
		return nil, err
	}
	return outcome, nil
}

// PlaySong starts playing the song in an idle chat, or adds it to the
// tail of the queue when a song is already playing. If the song cannot
// be started, it is dropped and the chat stays idle.
func (c *Controller) PlaySong(ctx context.Context, chatID string, song *model.Song) (*Outcome, error) {
	chat, err := c.store.Acquire(ctx, chatID)
	if err != nil {
		return nil, err
	}
	defer c.store.Release(chat)

	if chat.State() == model.Playing {
		if err := chat.Enqueue(song); err != nil {
			return nil, err
		}
		c.log.WithFields(log.Fields{
			"ChatID": chatID,
			"SongID": song.ID,
		}).Trace("Song queued")
		return &Outcome{Song: song, Queued: true, Position: chat.Len()}, nil
	}

	if err := chat.Enqueue(song); err != nil {
		return nil, err
	}
	chat.Promote()
	if err := c.start(ctx, chatID, song, true); err != nil {
		chat.Finish()
		return nil, err
	}
	c.started(ctx, chatID, song)
	return &Outcome{Song: song}, nil
}

// Skip stops the song currently playing and starts the next one.
// Returns the song that started playing, nil if the queue was
// exhausted and the chat is now idle.
func (c *Controller) Skip(ctx context.Context, chatID string) (*model.Song, error) {
	chat, err := c.store.Acquire(ctx, chatID)
	if err != nil {
		return nil, err
	}
	defer c.store.Release(chat)

	if chat.State() == model.Idle {
		return nil, ErrNothingPlaying
	}
	return c.advance(ctx, chat)
}

// OnStreamEnded advances the chat's queue after the stream of the track
// identified by trackID ended. Events of tracks that are no longer
// playing are ignored, as are events for idle chats. An empty trackID
// matches any track.
func (c *Controller) OnStreamEnded(ctx context.Context, chatID string, trackID string) (*model.Song, error) {
	chat, err := c.store.Acquire(ctx, chatID)
	if err != nil {
		return nil, err
	}
	defer c.store.Release(chat)

	playing := chat.NowPlaying()
	if playing == nil {
		return nil, nil
	}
	if len(trackID) > 0 && playing.ID != trackID {
		c.log.WithFields(log.Fields{
			"ChatID":  chatID,
			"TrackID": trackID,
		}).Trace("Ignoring stale stream ended event")
		return playing, nil
	}
	next, err := c.advance(ctx, chat)
	if next == nil && c.notifier != nil {
		c.notifier.Finished(chatID)
	}
	return next, err
}

// Stop clears the chat's queue and the song playing, and leaves
// the voice call. Stopping an idle chat is not an error.
func (c *Controller) Stop(ctx context.Context, chatID string) error {
	chat, err := c.store.Acquire(ctx, chatID)
	if err != nil {
		return err
	}
	defer c.store.Release(chat)

	for _, song := range chat.Reset() {
		c.resolver.Release(song)
	}
	c.leave(ctx, chatID)
	c.log.WithField("ChatID", chatID).Trace("Playback stopped")
	return nil
}

// Clear removes the chat's pending songs, the song
// playing is not affected.
func (c *Controller) Clear(ctx context.Context, chatID string) (int, error) {
	removed, err := c.store.Clear(ctx, chatID)
	if err != nil {
		return 0, err
	}
	for _, song := range removed {
		c.resolver.Release(song)
	}
	return len(removed), nil
}

// Pause pauses the chat's stream. The playback state is not affected.
func (c *Controller) Pause(ctx context.Context, chatID string) error {
	return c.call(ctx, chatID, "pause", func(ctx context.Context) error {
		return c.calls.Pause(ctx, chatID)
	})
}

// Resume resumes the chat's paused stream. The playback
// state is not affected.
func (c *Controller) Resume(ctx context.Context, chatID string) error {
	return c.call(ctx, chatID, "resume", func(ctx context.Context) error {
		return c.calls.Resume(ctx, chatID)
	})
}

// Snapshot returns a read-only view of the chat's playback state.
func (c *Controller) Snapshot(ctx context.Context, chatID string) (*model.Snapshot, error) {
	return c.store.Snapshot(ctx, chatID)
}

// advance replaces the song playing with the next song in the queue.
// A song that fails to start is put back to the front of the queue and
// retried, at most MaxSongRetries times, before it is dropped. The call
// is left once the queue is exhausted.
func (c *Controller) advance(ctx context.Context, chat *queue.Chat) (*model.Song, error) {
	chatID := chat.ID()
	l := c.log.WithField("ChatID", chatID)

	c.resolver.Release(chat.Finish())

	var lastErr error
	for {
		next := chat.Promote()
		if next == nil {
			l.Trace("Queue exhausted")
			c.leave(ctx, chatID)
			return nil, lastErr
		}
		err := c.start(ctx, chatID, next, false)
		if err == nil {
			c.started(ctx, chatID, next)
			if c.notifier != nil {
				c.notifier.NowPlaying(chatID, next)
			}
			return next, nil
		}
		lastErr = err

		if errors.Is(err, voice.ErrNoActiveCall) {
			// NOTE: nobody left to listen, drop everything
			l.Debug("No active voice call, resetting the chat")
			for _, song := range chat.Reset() {
				c.resolver.Release(song)
			}
			if c.notifier != nil {
				c.notifier.SongFailed(chatID, next, err)
			}
			return nil, err
		}
		if chat.Requeue(next, c.config.MaxSongRetries) {
			l.WithField("SongID", next.ID).Debugf(
				"Song failed to start, retrying: %v", err,
			)
			continue
		}
		l.WithField("SongID", next.ID).Warnf(
			"Song failed to start, dropping it: %v", err,
		)
		c.resolver.Release(next)
		if c.notifier != nil {
			c.notifier.SongFailed(chatID, next, err)
		}
	}
}

// disconnected resets the chat after its voice call was lost.
func (c *Controller) disconnected(ctx context.Context, chatID string) error {
	chat, err := c.store.Acquire(ctx, chatID)
	if err != nil {
		return err
	}
	defer c.store.Release(chat)

	if chat.State() == model.Idle {
		return nil
	}
	for _, song := range chat.Reset() {
		c.resolver.Release(song)
	}
	if c.notifier != nil {
		c.notifier.Finished(chatID)
	}
	return nil
}

// start streams the song into the chat's voice call. When join is set
// the call is joined first, falling back to switching the stream when
// the call is already joined. Otherwise the stream is switched, falling
// back to joining when the call was left in the meantime.
func (c *Controller) start(ctx context.Context, chatID string, song *model.Song, join bool) error {
	track := voice.Track{ID: song.ID, Locator: song.Locator}
	joinAndStream := func(ctx context.Context) error {
		return c.calls.JoinAndStream(ctx, chatID, track)
	}
	switchStream := func(ctx context.Context) error {
		return c.calls.SwitchStream(ctx, chatID, track)
	}
	if join {
		err := c.call(ctx, chatID, "join", joinAndStream)
		if errors.Is(err, voice.ErrAlreadyJoined) {
			err = c.call(ctx, chatID, "switch", switchStream)
		}
		return err
	}
	err := c.call(ctx, chatID, "switch", switchStream)
	if errors.Is(err, voice.ErrNotInCall) {
		err = c.call(ctx, chatID, "join", joinAndStream)
	}
	return err
}

// leave leaves the chat's voice call, failures are only logged.
func (c *Controller) leave(ctx context.Context, chatID string) {
	err := c.call(ctx, chatID, "leave", func(ctx context.Context) error {
		return c.calls.Leave(ctx, chatID)
	})
	if err != nil && !errors.Is(err, voice.ErrNotInCall) {
		c.log.WithField("ChatID", chatID).Debugf("Ignoring leave failure: %v", err)
	}
}

// call runs the voice call operation, converting a panic into
// an error so that a faulty call never crashes the process.
func (c *Controller) call(ctx context.Context, chatID string, op string, f func(context.Context) error) (err error) {
	if c.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.CallTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s panicked: %v", voice.ErrTransport, op, r)
		}
		if err != nil {
			c.log.WithFields(log.Fields{
				"ChatID":    chatID,
				"Operation": op,
			}).Logf(callFailureLevel(err), "Voice call failed: %v", err)
		}
	}()
	return f(ctx)
}

// callFailureLevel returns the level a failed voice call operation is
// logged at. Missing or already joined calls are expected on idle chats.
func callFailureLevel(err error) log.Level {
	if errors.Is(err, voice.ErrNotInCall) ||
		errors.Is(err, voice.ErrAlreadyJoined) ||
		errors.Is(err, voice.ErrNoActiveCall) {
		return log.DebugLevel
	}
	return log.WarnLevel
}

// started records the song that started playing.
func (c *Controller) started(ctx context.Context, chatID string, song *model.Song) {
	c.log.WithFields(log.Fields{
		"ChatID": chatID,
		"SongID": song.ID,
		"Title":  song.Title,
	}).Trace("Song started")
	if c.history == nil {
		return
	}
	if c.config.HistoryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.HistoryTimeout)
		defer cancel()
	}
	if err := c.history.RecordPlay(ctx, chatID, song); err != nil {
		c.log.WithField("ChatID", chatID).Warnf("Failed to record play: %v", err)
	}
}
