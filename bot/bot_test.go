package bot

import (
	"rhythmix/bot/slash_command"
	"rhythmix/bot/transaction"
	"rhythmix/builder"
	"rhythmix/model"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
)

type BotTestSuite struct {
	suite.Suite
	bot          *Bot
	transactions *transaction.Transactions
}

// SetupTest creates a bot without a discord connection, its
// session only holds the state with a single voice state.
func (s *BotTestSuite) SetupTest() {
	l := log.New()
	l.SetLevel(log.PanicLevel)

	state := discordgo.NewState()
	s.Require().NoError(state.GuildAdd(&discordgo.Guild{
		ID: "guild",
		VoiceStates: []*discordgo.VoiceState{
			{GuildID: "guild", UserID: "user", ChannelID: "voice"},
		},
	}))
	s.bot = &Bot{
		log:      l,
		session:  &discordgo.Session{State: state},
		channels: make(map[string]string),
		builder: builder.NewBuilder(&builder.Configuration{
			Title:      "Music",
			QueueLimit: 10,
			Buttons:    &builder.ButtonsConfig{},
		}),
		config: &Configuration{
			SlashCommands: &slash_command.SlashCommandsConfig{
				Play:       &slash_command.ChatCommandConfig{Name: "play", Description: "Play a song"},
				Pause:      &slash_command.ChatCommandConfig{Name: "pause", Description: "Pause"},
				Resume:     &slash_command.ChatCommandConfig{Name: "resume", Description: "Resume"},
				Skip:       &slash_command.ChatCommandConfig{Name: "skip", Description: "Skip"},
				Stop:       &slash_command.ChatCommandConfig{Name: "stop", Description: "Stop"},
				Clear:      &slash_command.ChatCommandConfig{Name: "clear", Description: "Clear"},
				Queue:      &slash_command.ChatCommandConfig{Name: "queue", Description: "Queue"},
				NowPlaying: &slash_command.ChatCommandConfig{Name: "nowplaying", Description: "Now playing"},
				Lyrics:     &slash_command.ChatCommandConfig{Name: "lyrics", Description: "Lyrics"},
				Ping:       &slash_command.ChatCommandConfig{Name: "ping", Description: "Ping"},
				Stats:      &slash_command.ChatCommandConfig{Name: "stats", Description: "Stats"},
			},
		},
	}
	s.transactions = transaction.NewTransactions(
		func() *discordgo.Session { return s.bot.session }, l,
	)
}

func (s *BotTestSuite) command(options ...*discordgo.ApplicationCommandInteractionDataOption) *transaction.Transaction {
	return s.transactions.New("Test", &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: "guild",
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    "play",
			Options: options,
		},
	})
}

// TestUnitChannels checks that the last text channel
// a command was used in is remembered.
func (s *BotTestSuite) TestUnitChannels() {
	_, ok := s.bot.textChannel("guild")
	s.False(ok)

	s.bot.rememberChannel("guild", "text1")
	s.bot.rememberChannel("guild", "")
	channelID, ok := s.bot.textChannel("guild")
	s.True(ok)
	s.Equal("text1", channelID)

	s.bot.rememberChannel("guild", "text2")
	channelID, _ = s.bot.textChannel("guild")
	s.Equal("text2", channelID)
}

// TestUnitNotifyWithoutChannel checks that the notifications
// of guilds without a known text channel are skipped.
func (s *BotTestSuite) TestUnitNotifyWithoutChannel() {
	s.NotPanics(func() {
		s.bot.NowPlaying("guild", &model.Song{Title: "song"})
		s.bot.SongFailed("guild", &model.Song{Title: "song"}, nil)
		s.bot.Finished("guild")
	})
}

// TestUnitNotifyNotReady checks that nothing is sent before the
// bot is ready, while the ready flag is toggled concurrently.
func (s *BotTestSuite) TestUnitNotifyNotReady() {
	l, hook := test.NewNullLogger()
	l.SetLevel(log.TraceLevel)
	s.bot.log = l
	s.bot.rememberChannel("guild", "text")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			s.bot.ready.Store(false)
		}
	}()
	for i := 0; i < 100; i++ {
		s.bot.Finished("guild")
	}
	wg.Wait()

	s.False(s.bot.ready.Load())
	s.Len(hook.AllEntries(), 100)
	entry := hook.LastEntry()
	s.Require().NotNil(entry)
	s.Equal(log.TraceLevel, entry.Level)
	s.Equal("guild", entry.Data["GuildID"])
}

func (s *BotTestSuite) TestUnitUserVoiceChannel() {
	s.Equal("voice", s.bot.userVoiceChannel("guild", "user"))
	s.Empty(s.bot.userVoiceChannel("guild", "other"))
	s.Empty(s.bot.userVoiceChannel("other", "user"))
}

func (s *BotTestSuite) TestUnitOptions() {
	t := s.command(
		&discordgo.ApplicationCommandInteractionDataOption{
			Name:  slash_command.QueryOption,
			Type:  discordgo.ApplicationCommandOptionString,
			Value: "  never gonna give you up ",
		},
		&discordgo.ApplicationCommandInteractionDataOption{
			Name:  slash_command.UserOption,
			Type:  discordgo.ApplicationCommandOptionUser,
			Value: "1234",
		},
	)
	s.Equal("never gonna give you up", stringOption(t, slash_command.QueryOption))
	s.Empty(stringOption(t, slash_command.SongOption))
	s.Equal("1234", userOption(t, slash_command.UserOption))

	s.Empty(userOption(s.command(), slash_command.UserOption))
}

func (s *BotTestSuite) TestUnitDefaultHelp() {
	help := s.bot.defaultHelp()
	s.Contains(help, "`/play` Play a song")
	s.Contains(help, "`/nowplaying` Now playing")
	s.NotContains(help, "reboot")
}

// TestBotTestSuite runs all tests under
// the BotTestSuite
func TestBotTestSuite(t *testing.T) {
	suite.Run(t, new(BotTestSuite))
}
