package bot

import (
	"context"
	"rhythmix/bot/permissions"
	"rhythmix/bot/slash_command"
	"rhythmix/bot/transaction"
	"rhythmix/builder"
	"rhythmix/datastore"
	"rhythmix/lyrics"
	"rhythmix/player"
	"rhythmix/queue"
	"rhythmix/voice"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type Bot struct {
	log          *log.Logger
	ctx          context.Context
	ready        atomic.Bool
	started      time.Time
	config       *Configuration
	session      *discordgo.Session
	builder      *builder.Builder
	datastore    *datastore.Datastore
	store        *queue.Store
	calls        *voice.DiscordCalls
	player       *player.Controller
	lyricist     *lyrics.Lyricist
	permissions  *permissions.PermissionsChecker
	transactions *transaction.Transactions
	// text channels the notifications of the guilds are sent to
	channels     map[string]string
	channelsSync sync.RWMutex
	onReboot     func()
	helpContent  string
}

type Configuration struct {
	LogLevel      log.Level                          `yaml:"LogLevel" validate:"required" env:"LOG_LEVEL"`
	DiscordToken  string                             `yaml:"DiscordToken" validate:"required" env:"BOT_TOKEN"`
	Queue         *queue.Configuration               `yaml:"Queue" validate:"required"`
	Player        *player.Configuration              `yaml:"Player" validate:"required"`
	Voice         *voice.Configuration               `yaml:"Voice" validate:"required"`
	Datastore     *datastore.Configuration           `yaml:"Datastore" validate:"required"`
	Builder       *builder.Configuration             `yaml:"Builder" validate:"required"`
	Permissions   *permissions.Configuration         `yaml:"Permissions" validate:"required"`
	Lyrics        *lyrics.Configuration              `yaml:"Lyrics" validate:"required"`
	SlashCommands *slash_command.SlashCommandsConfig `yaml:"SlashCommands" validate:"required"`
	// StopTimeout bounds stopping the playback of every
	// guild when the bot shuts down.
	StopTimeout time.Duration `yaml:"StopTimeout" validate:"required"`
}

// NewBot constructs an object that connects the playback controller
// with the discord api, the datastore and the other services.
func NewBot(ctx context.Context, config *Configuration, resolver player.Resolver, started time.Time, help string) (*Bot, error) {
	l := log.New()
	l.SetLevel(config.LogLevel)
	l.Debug("Creating Discord music bot ...")

	bot := &Bot{
		ctx:         ctx,
		log:         l,
		started:     started,
		config:      config,
		session:     nil,
		builder:     builder.NewBuilder(config.Builder),
		datastore:   datastore.NewDatastore(config.Datastore),
		lyricist:    lyrics.NewLyricist(config.Lyrics),
		channels:    make(map[string]string),
		helpContent: help,
	}
	session := func() *discordgo.Session { return bot.session }

	store, err := queue.NewStore(config.Queue, l)
	if err != nil {
		return nil, err
	}
	bot.store = store
	bot.calls = voice.NewDiscordCalls(ctx, config.Voice, session)
	bot.player = player.NewController(config.Player, store, resolver, bot.calls)
	bot.player.SetNotifier(bot)
	bot.permissions = permissions.NewPermissionsChecker(config.Permissions, session)
	bot.transactions = transaction.NewTransactions(session, l)

	l.Info("Discord music bot created")
	return bot, nil
}

// OnReboot sets the function called when a sudo user
// requests a reboot.
func (bot *Bot) OnReboot(f func()) {
	bot.onReboot = f
}

// Init connects to the database, when one is configured, and
// initializes its tables so that the played songs are recorded.
func (bot *Bot) Init() error {
	bot.log.Debug("Initializing the bot ...")

	if bot.config.Datastore.Enabled() {
		if err := bot.datastore.Connect(); err != nil {
			return err
		}
		if err := bot.datastore.Init(bot.ctx); err != nil {
			return err
		}
		bot.player.SetHistory(bot.datastore.History())
	} else {
		bot.log.Info("Datastore disabled, the play history will not be recorded")
	}
	bot.log.Info("Bot initialized")
	return nil
}

// Run is a long lived worker that creates a new discord session,
// verifies it, adds required intents and discord event handlers,
// then runs while the context is alive.
func (bot *Bot) Run() error {
	bot.log.Info("Creating new Discord session...")
	session, err := discordgo.New("Bot " + bot.config.DiscordToken)
	if err != nil {
		return err
	}
	bot.session = session

	// Set intents required by the bot
	intentsHandler := &DiscordIntentsHandler{bot}
	intentsHandler.setIntents()

	// Set handlers for events emitted by the discord
	eventHandler := &DiscordEventHandler{bot}
	eventHandler.setHandlers()

	if err := session.Open(); err != nil {
		return err
	}

	// Register slash commands required by the bot
	bot.log.Debug("Registering global slash commands ...")
	if err := slash_command.Register(
		bot.session,
		bot.config.SlashCommands,
	); err != nil {
		bot.log.Warn(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.player.Run(bot.ctx)
	}()

	<-bot.ctx.Done()

	bot.ready.Store(false)
	bot.stopAll()
	<-done
	if bot.datastore.DB != nil {
		bot.datastore.Close()
	}
	bot.log.Info("Closing discord session ... ")
	return bot.session.Close()
}

// stopAll stops the playback in every guild the bot
// is streaming to.
func (bot *Bot) stopAll() {
	ctx, cancel := context.WithTimeout(context.Background(), bot.config.StopTimeout)
	defer cancel()

	bot.session.RLock()
	guildIDs := make([]string, 0, len(bot.session.VoiceConnections))
	for guildID := range bot.session.VoiceConnections {
		guildIDs = append(guildIDs, guildID)
	}
	bot.session.RUnlock()

	for _, guildID := range guildIDs {
		if err := bot.player.Stop(ctx, guildID); err != nil {
			bot.log.WithField("GuildID", guildID).Warnf(
				"Error when stopping the playback: %v", err,
			)
		}
	}
}

// rememberChannel stores the text channel the guild's
// notifications are sent to.
func (bot *Bot) rememberChannel(guildID string, channelID string) {
	if len(channelID) == 0 {
		return
	}
	bot.channelsSync.Lock()
	defer bot.channelsSync.Unlock()
	bot.channels[guildID] = channelID
}

func (bot *Bot) textChannel(guildID string) (string, bool) {
	bot.channelsSync.RLock()
	defer bot.channelsSync.RUnlock()
	channelID, ok := bot.channels[guildID]
	return channelID, ok
}
