package bot

import (
	"context"
	"rhythmix/bot/slash_command"
	"rhythmix/bot/transaction"
	"rhythmix/builder"
	"rhythmix/health"
	"time"

	log "github.com/sirupsen/logrus"
)

// topSongsLimit is the number of songs listed by the stats command.
const topSongsLimit = 5

// onLyricsCommand searches for the lyrics of the provided song.
func (bot *Bot) onLyricsCommand(t *transaction.Transaction) {
	name := stringOption(t, slash_command.SongOption)
	if len(name) == 0 {
		t.Respond("❌ Usage: `/"+bot.config.SlashCommands.Lyrics.Name+" <song name>`", true)
		return
	}
	t.Respond(bot.builder.SearchingMessage(name), false)

	lyrics, err := bot.lyricist.Find(bot.ctx, name)
	if err != nil {
		bot.log.WithFields(log.Fields{
			"GuildID": t.GuildID(),
			"Song":    name,
		}).Debugf("Lyrics not found: %v", err)
		t.Respond(bot.builder.ErrorMessage(err), false)
		return
	}
	t.RespondEmbed(bot.builder.LyricsEmbed(lyrics), nil, false)
}

func (bot *Bot) onPingCommand(t *transaction.Transaction) {
	t.Respond(
		bot.builder.PingText(
			t.Latency(),
			health.FormatUptime(time.Since(bot.started)),
		),
		false,
	)
}

func (bot *Bot) onHelpCommand(t *transaction.Transaction) {
	content := bot.helpContent
	if len(content) == 0 {
		content = bot.defaultHelp()
	}
	t.Respond(content, true)
}

// onStatsCommand reports the runtime metrics of the bot and,
// when the history is recorded, the play counters.
func (bot *Bot) onStatsCommand(t *transaction.Transaction) {
	metrics, err := health.Collect(bot.started)
	if err != nil {
		// NOTE: metrics is still usable, only the
		// memory usage is missing
		bot.log.Warnf("Could not collect the metrics: %v", err)
	}
	stats := &builder.Stats{
		Uptime:       health.FormatUptime(metrics.Uptime),
		RSSBytes:     metrics.RSSBytes,
		Goroutines:   metrics.Goroutines,
		SystemMemory: metrics.SystemMemory,
		Chats:        bot.store.Size(),
		TotalPlays:   -1,
	}
	if err := bot.historyStats(t.GuildID(), stats); err != nil {
		bot.log.WithField("GuildID", t.GuildID()).Warnf(
			"Could not read the play history: %v", err,
		)
	}
	t.Respond(bot.builder.StatsText(stats), false)
}

// historyStats fills the play counters of the stats, it leaves
// them untouched when the datastore is disabled.
func (bot *Bot) historyStats(guildID string, stats *builder.Stats) error {
	if !bot.config.Datastore.Enabled() || bot.datastore.History() == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(bot.ctx, 5*time.Second)
	defer cancel()

	h := bot.datastore.History()
	plays, chats, err := h.TotalPlays(ctx)
	if err != nil {
		return err
	}
	chatPlays, err := h.CountPlays(ctx, guildID)
	if err != nil {
		return err
	}
	top, err := h.TopSongs(ctx, guildID, topSongsLimit)
	if err != nil {
		return err
	}
	stats.TotalPlays = plays
	stats.TotalChats = chats
	stats.ChatPlays = chatPlays
	stats.TopSongs = top
	return nil
}

func (bot *Bot) defaultHelp() string {
	c := bot.config.SlashCommands
	commands := []*slash_command.ChatCommandConfig{
		c.Play, c.Pause, c.Resume, c.Skip, c.Stop, c.Clear,
		c.Queue, c.NowPlaying, c.Lyrics, c.Ping, c.Stats,
	}
	s := "🎵 **Music Bot**\n\n"
	for _, cmd := range commands {
		s += "`/" + cmd.Name + "` " + cmd.Description + "\n"
	}
	return s
}
