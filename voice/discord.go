package voice

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type Configuration struct {
	LogLevel log.Level `yaml:"LogLevel" validate:"required" env:"LOG_LEVEL"`
	Bitrate  int       `yaml:"Bitrate" validate:"required,min=8,max=512"`
}

// DiscordCalls streams audio into discord voice channels. A chat is a
// discord guild and its voice call is the guild's voice channel with
// listeners in it.
type DiscordCalls struct {
	ctx     context.Context
	log     *log.Logger
	config  *Configuration
	session func() *discordgo.Session
	mutex   sync.Mutex
	calls   map[string]*call
	hints   map[string]string
	events  chan Event
}

type call struct {
	guildID   string
	channelID string
	vc        *discordgo.VoiceConnection
	stream    *stream
}

// NewDiscordCalls constructs an object that handles joining the
// guilds' voice channels and streaming audio into them.
func NewDiscordCalls(ctx context.Context, config *Configuration, session func() *discordgo.Session) *DiscordCalls {
	l := log.New()
	l.SetLevel(config.LogLevel)
	l.Debug("Created discord voice calls")
	return &DiscordCalls{
		ctx:     ctx,
		log:     l,
		config:  config,
		session: session,
		calls:   make(map[string]*call),
		hints:   make(map[string]string),
		events:  make(chan Event, 64),
	}
}

// Events returns the channel on which the stream ended
// events are delivered.
func (calls *DiscordCalls) Events() <-chan Event {
	return calls.events
}

// Hint marks the provided voice channel as the preferred one
// to join in the guild, usually the channel of the user
// that requested a song.
func (calls *DiscordCalls) Hint(guildID string, channelID string) {
	calls.mutex.Lock()
	defer calls.mutex.Unlock()
	if len(channelID) == 0 {
		delete(calls.hints, guildID)
		return
	}
	calls.hints[guildID] = channelID
}

// JoinAndStream joins the guild's active voice channel and
// starts streaming the track into it.
func (calls *DiscordCalls) JoinAndStream(ctx context.Context, guildID string, track Track) error {
	calls.mutex.Lock()
	if _, ok := calls.calls[guildID]; ok {
		calls.mutex.Unlock()
		return ErrAlreadyJoined
	}
	channelID, err := calls.findActiveChannel(guildID)
	calls.mutex.Unlock()
	if err != nil {
		return err
	}

	calls.log.WithFields(log.Fields{
		"GuildID":   guildID,
		"ChannelID": channelID,
	}).Trace("Joining voice channel")

	vc, err := calls.session().ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	c := &call{
		guildID:   guildID,
		channelID: channelID,
		vc:        vc,
	}
	calls.mutex.Lock()
	calls.calls[guildID] = c
	calls.mutex.Unlock()

	if err := calls.play(c, track); err != nil {
		// NOTE: do not hold a session without a stream
		calls.disconnect(c)
		return err
	}
	return nil
}

// SwitchStream replaces the stream in the guild's voice
// channel with the provided track.
func (calls *DiscordCalls) SwitchStream(ctx context.Context, guildID string, track Track) error {
	calls.mutex.Lock()
	c, ok := calls.calls[guildID]
	calls.mutex.Unlock()
	if !ok {
		return ErrNotInCall
	}
	calls.log.WithField("GuildID", guildID).Trace("Switching stream")
	return calls.play(c, track)
}

// Leave stops streaming and leaves the guild's voice channel.
func (calls *DiscordCalls) Leave(ctx context.Context, guildID string) error {
	calls.mutex.Lock()
	c, ok := calls.calls[guildID]
	calls.mutex.Unlock()
	if !ok {
		return ErrNotInCall
	}
	calls.log.WithField("GuildID", guildID).Trace("Leaving voice channel")
	return calls.disconnect(c)
}

// Pause pauses the stream in the guild's voice channel.
func (calls *DiscordCalls) Pause(ctx context.Context, guildID string) error {
	return calls.setPaused(guildID, true)
}

// Resume resumes the paused stream in the guild's voice channel.
func (calls *DiscordCalls) Resume(ctx context.Context, guildID string) error {
	return calls.setPaused(guildID, false)
}

// PlaybackPosition returns the duration of the current track already
// streamed in the guild, 0 if nothing is streaming.
func (calls *DiscordCalls) PlaybackPosition(guildID string) time.Duration {
	calls.mutex.Lock()
	defer calls.mutex.Unlock()
	if c, ok := calls.calls[guildID]; ok && c.stream != nil {
		return c.stream.PlaybackPosition()
	}
	return 0
}

// OnVoiceStateUpdate should be called for every voice state update of the
// bot's user. When the bot has been removed from a voice channel, the
// session is dropped and a disconnected event is emitted.
func (calls *DiscordCalls) OnVoiceStateUpdate(v *discordgo.VoiceStateUpdate) {
	calls.mutex.Lock()
	c, ok := calls.calls[v.GuildID]
	if !ok {
		calls.mutex.Unlock()
		return
	}
	if len(v.ChannelID) > 0 {
		c.channelID = v.ChannelID
		calls.mutex.Unlock()
		return
	}
	delete(calls.calls, v.GuildID)
	st := c.stream
	c.stream = nil
	calls.mutex.Unlock()

	calls.log.WithField("GuildID", v.GuildID).Debug("Removed from voice channel")
	if st != nil {
		st.Stop()
	}
	trackID := ""
	if st != nil {
		trackID = st.track.ID
	}
	calls.emit(Event{
		ChatID:       v.GuildID,
		TrackID:      trackID,
		Disconnected: true,
	})
}

func (calls *DiscordCalls) play(c *call, track Track) error {
	st, err := newStream(track, c.vc, calls.config)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	calls.mutex.Lock()
	previous := c.stream
	c.stream = st
	calls.mutex.Unlock()

	if previous != nil {
		previous.Stop()
	}
	go calls.watch(c, st)
	return nil
}

// watch waits for the stream to finish and emits a stream ended event,
// unless the stream has been replaced or stopped in the meantime.
func (calls *DiscordCalls) watch(c *call, st *stream) {
	var err error
	select {
	case err = <-st.done:
	case <-st.stopped:
	}
	st.Cleanup()

	calls.mutex.Lock()
	current := calls.calls[c.guildID] == c && c.stream == st
	if current {
		c.stream = nil
	}
	calls.mutex.Unlock()

	if !current {
		return
	}
	if err == io.EOF {
		err = nil
	}
	calls.log.WithFields(log.Fields{
		"GuildID": c.guildID,
		"TrackID": st.track.ID,
	}).Trace("Stream ended")

	calls.emit(Event{
		ChatID:  c.guildID,
		TrackID: st.track.ID,
		Err:     err,
	})
}

func (calls *DiscordCalls) emit(event Event) {
	select {
	case calls.events <- event:
	case <-calls.ctx.Done():
	}
}

func (calls *DiscordCalls) disconnect(c *call) error {
	calls.mutex.Lock()
	if calls.calls[c.guildID] == c {
		delete(calls.calls, c.guildID)
	}
	st := c.stream
	c.stream = nil
	calls.mutex.Unlock()

	if st != nil {
		st.Stop()
	}
	c.vc.Speaking(false)
	if err := c.vc.Disconnect(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

func (calls *DiscordCalls) setPaused(guildID string, paused bool) error {
	calls.mutex.Lock()
	defer calls.mutex.Unlock()
	c, ok := calls.calls[guildID]
	if !ok || c.stream == nil {
		return ErrNotInCall
	}
	c.stream.SetPaused(paused)
	return nil
}

// findActiveChannel returns the guild's voice channel that should be
// joined: the hinted channel if anyone is listening in it, otherwise
// the channel with the most listeners. Bots are not counted.
// Expects the mutex to be held.
func (calls *DiscordCalls) findActiveChannel(guildID string) (string, error) {
	s := calls.session()
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return "", ErrNoActiveCall
	}
	botID := ""
	if s.State.User != nil {
		botID = s.State.User.ID
	}
	listeners := make(map[string]int)
	for _, vs := range guild.VoiceStates {
		if len(vs.ChannelID) == 0 || vs.UserID == botID {
			continue
		}
		if member, err := s.State.Member(guildID, vs.UserID); err == nil &&
			member.User != nil && member.User.Bot {
			continue
		}
		listeners[vs.ChannelID]++
	}
	if len(listeners) == 0 {
		return "", ErrNoActiveCall
	}
	if hint, ok := calls.hints[guildID]; ok && listeners[hint] > 0 {
		return hint, nil
	}
	channels := make([]string, 0, len(listeners))
	for channelID := range listeners {
		channels = append(channels, channelID)
	}
	sort.Slice(channels, func(i, j int) bool {
		if listeners[channels[i]] != listeners[channels[j]] {
			return listeners[channels[i]] > listeners[channels[j]]
		}
		return channels[i] < channels[j]
	})
	return channels[0], nil
}
