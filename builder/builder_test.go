package builder

import (
	"context"
	"errors"
	"fmt"
	"rhythmix/bot/permissions"
	"rhythmix/datastore/history"
	"rhythmix/lyrics"
	"rhythmix/model"
	"rhythmix/player"
	"rhythmix/queue"
	"rhythmix/resolver"
	"rhythmix/voice"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/suite"
)

type BuilderTestSuite struct {
	suite.Suite
	builder *Builder
}

// SetupSuite creates the builder with a queue limit of 10.
func (s *BuilderTestSuite) SetupSuite() {
	s.builder = NewBuilder(&Configuration{
		Title:      "Music",
		Footer:     "footer",
		QueueLimit: 10,
		Buttons: &ButtonsConfig{
			Pause:  "Pause",
			Resume: "Resume",
			Skip:   "Skip",
			Stop:   "Stop",
			Queue:  "Queue",
		},
	})
}

func song(title string, duration int) *model.Song {
	return model.NewSong(model.SongInfo{
		Title:      title,
		Duration:   duration,
		WebpageURL: "https://www.youtube.com/watch?v=" + title,
		Platform:   model.YouTube,
	})
}

// TestUnitQueueText checks that only the first 10 pending songs
// are listed, followed by the number of the remaining ones.
func (s *BuilderTestSuite) TestUnitQueueText() {
	snapshot := &model.Snapshot{
		ChatID:     "chat",
		State:      model.Playing,
		NowPlaying: song("now", 75),
		Queue:      make([]*model.Song, 0),
	}
	for i := 1; i <= 13; i++ {
		snapshot.Queue = append(snapshot.Queue, song(fmt.Sprintf("song%d", i), 60*i))
	}
	text := s.builder.QueueText(snapshot)
	s.Contains(text, "[now](https://www.youtube.com/watch?v=now) `[1:15]`")
	s.Contains(text, "**1.** song1 `[1:00]`")
	s.Contains(text, "**10.** song10 `[10:00]`")
	s.NotContains(text, "song11")
	s.True(strings.HasSuffix(text, "... and 3 more"))
}

// TestUnitQueueTextEmpty checks the empty and idle queues.
func (s *BuilderTestSuite) TestUnitQueueTextEmpty() {
	s.Equal("📭 **Queue is empty!**", s.builder.QueueText(&model.Snapshot{}))
	s.Equal("📭 **Queue is empty!**", s.builder.QueueText(nil))

	text := s.builder.QueueText(&model.Snapshot{NowPlaying: song("now", 0)})
	s.Contains(text, "`[Live]`")
	s.Contains(text, "Nothing else in the queue")
}

// TestUnitShortName checks the markdown escaping and
// shortening of the names.
func (s *BuilderTestSuite) TestUnitShortName() {
	s.Equal(`a\*b\_c 'd'`, s.builder.ShortName(" a*b_c `d` "))
	long := strings.Repeat("ä", 50)
	s.Equal(strings.Repeat("ä", 40)+"...", s.builder.ShortName(long))
}

// TestUnitErrorMessage checks that wrapped errors are
// mapped to their messages.
func (s *BuilderTestSuite) TestUnitErrorMessage() {
	for _, c := range []struct {
		err      error
		expected string
	}{
		{&resolver.Error{Query: "q", Attempts: 3, Err: fmt.Errorf("%w: boom", resolver.ErrNotFound)}, "Song not found"},
		{fmt.Errorf("%w: x", resolver.ErrBackendBlocked), "refusing requests"},
		{fmt.Errorf("join: %w", voice.ErrNoActiveCall), "Voice chat is not started"},
		{queue.ErrQueueFull, "queue is full"},
		{player.ErrNothingPlaying, "Nothing is playing"},
		{permissions.ErrNotAdmin, "Only admins"},
		{permissions.ErrBlocked, "blocked"},
		{permissions.ErrMaintenance, "maintenance"},
		{lyrics.ErrNotFound, "Lyrics not found"},
		{context.DeadlineExceeded, "took too long"},
		{errors.New("something unexpected happened"), "Something went wrong"},
	} {
		s.Contains(s.builder.ErrorMessage(c.err), c.expected, c.err.Error())
	}
}

// TestUnitLyricsText checks that long lyrics are truncated.
func (s *BuilderTestSuite) TestUnitLyricsText() {
	short := s.builder.LyricsText(&lyrics.Lyrics{Artist: "A", Title: "T", Text: "la la"})
	s.Equal("📝 **Lyrics for A - T:**\n\nla la", short)

	exact := s.builder.LyricsText(&lyrics.Lyrics{Text: strings.Repeat("x", 4096)})
	s.NotContains(exact, "[Truncated]")

	long := s.builder.LyricsText(&lyrics.Lyrics{Text: strings.Repeat("x", 5000)})
	s.True(strings.HasSuffix(long, strings.Repeat("x", 4000)+"\n\n... [Truncated]"))
	s.NotContains(long, strings.Repeat("x", 4001))
}

// TestUnitOutcomeMessage checks the queued and playing outcomes.
func (s *BuilderTestSuite) TestUnitOutcomeMessage() {
	sng := song("a", 61)
	s.Contains(
		s.builder.OutcomeMessage(&player.Outcome{Song: sng, Queued: true, Position: 2}),
		"position 2",
	)
	s.Contains(
		s.builder.OutcomeMessage(&player.Outcome{Song: sng}),
		"Now Playing",
	)
	s.Contains(s.builder.SkippedMessage(nil), "queue is empty")
	s.Contains(s.builder.ClearedMessage(1), "1 song ")
	s.Contains(s.builder.ClearedMessage(3), "3 songs")
}

// TestUnitNowPlayingEmbed checks the embed fields and
// the playback position bar.
func (s *BuilderTestSuite) TestUnitNowPlayingEmbed() {
	sng := song("a", 120)
	sng.RequesterID = "42"
	embed := s.builder.NowPlayingEmbed(sng, 60)
	s.Equal("Music", embed.Title)
	s.Len(embed.Fields, 3)
	s.Equal("2:00", embed.Fields[0].Value)
	s.Equal("<@42>", embed.Fields[1].Value)
	s.Contains(embed.Fields[2].Value, "**1:00**")
	s.Contains(embed.Fields[2].Value, "**2:00**")

	// NOTE: live songs have no position bar
	embed = s.builder.NowPlayingEmbed(song("live", 0), 30)
	s.Len(embed.Fields, 2)
	s.Equal("Unknown", embed.Fields[1].Value)
}

// TestUnitControls checks that the button labels can be
// recovered from their custom ids.
func (s *BuilderTestSuite) TestUnitControls() {
	labels := make([]string, 0)
	for _, row := range s.builder.Controls() {
		for _, c := range row.(discordgo.ActionsRow).Components {
			button := c.(discordgo.Button)
			labels = append(labels, s.builder.GetButtonLabelFromComponentData(
				discordgo.MessageComponentInteractionData{CustomID: button.CustomID},
			))
		}
	}
	s.Equal([]string{"Pause", "Resume", "Skip", "Stop", "Queue"}, labels)
}

// TestUnitStatsText checks that the history rows are only
// added when the history is enabled.
func (s *BuilderTestSuite) TestUnitStatsText() {
	stats := &Stats{
		Uptime:     "1:00:00",
		RSSBytes:   3 * 1024 * 1024,
		Goroutines: 12,
		Chats:      2,
		TotalPlays: -1,
	}
	text := s.builder.StatsText(stats)
	s.Contains(text, "3.0 MiB")
	s.Contains(text, "1:00:00")
	s.NotContains(text, "Songs played")
	s.NotContains(text, "Top songs")

	stats.TotalPlays = 7
	stats.TopSongs = []*history.SongPlays{{Title: "A", Plays: 4}}
	text = s.builder.StatsText(stats)
	s.Contains(text, "Songs played")
	s.Contains(text, "Top songs")
}

// TestUnitPingText checks the latency formatting.
func (s *BuilderTestSuite) TestUnitPingText() {
	s.Contains(s.builder.PingText(1500*time.Microsecond, "0:00:10"), "1.50ms")
}

// TestBuilderTestSuite runs all tests under
// the BuilderTestSuite
func TestBuilderTestSuite(t *testing.T) {
	suite.Run(t, new(BuilderTestSuite))
}
