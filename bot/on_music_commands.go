package bot

import (
	"rhythmix/bot/slash_command"
	"rhythmix/bot/transaction"
	"rhythmix/player"
	"strings"

	log "github.com/sirupsen/logrus"
)

// onPlayCommand resolves the query and plays it in the guild's voice
// call or adds it to the queue. The user is told that the query is
// being searched first, the response is then edited with the outcome.
func (bot *Bot) onPlayCommand(t *transaction.Transaction) {
	query := stringOption(t, slash_command.QueryOption)
	if len(query) == 0 {
		t.Respond("❌ Usage: `/"+bot.config.SlashCommands.Play.Name+" <song name or link>`", true)
		return
	}
	if err := bot.permissions.AllowPlay(t.UserID()); err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	// NOTE: prefer the voice channel of the user when
	// choosing the call to join
	if channelID := bot.userVoiceChannel(t.GuildID(), t.UserID()); len(channelID) > 0 {
		bot.calls.Hint(t.GuildID(), channelID)
	}
	t.Respond(bot.builder.SearchingMessage(query), false)

	outcome, err := bot.player.RequestPlay(
		bot.ctx,
		t.GuildID(),
		query,
		player.Requester{ID: t.UserID(), Name: t.UserName()},
	)
	if err != nil {
		bot.log.WithFields(log.Fields{
			"GuildID": t.GuildID(),
			"Query":   query,
		}).Debugf("Play request failed: %v", err)
		t.Respond(bot.builder.ErrorMessage(err), false)
		return
	}
	if outcome.Queued {
		t.Respond(bot.builder.OutcomeMessage(outcome), false)
		return
	}
	t.RespondEmbed(
		bot.builder.NowPlayingEmbed(outcome.Song, 0),
		bot.builder.Controls(),
		false,
	)
}

func (bot *Bot) onPauseCommand(t *transaction.Transaction) {
	if err := bot.permissions.CheckControl(t.GuildID(), t.Member()); err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	if err := bot.player.Pause(bot.ctx, t.GuildID()); err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	t.Respond("⏸ **Paused!**", false)
}

func (bot *Bot) onResumeCommand(t *transaction.Transaction) {
	if err := bot.permissions.CheckControl(t.GuildID(), t.Member()); err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	if err := bot.player.Resume(bot.ctx, t.GuildID()); err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	t.Respond("▶️ **Resumed!**", false)
}

// onSkipCommand stops the song playing and starts the next one,
// the now playing notification is sent by the notifier.
func (bot *Bot) onSkipCommand(t *transaction.Transaction) {
	if err := bot.permissions.CheckControl(t.GuildID(), t.Member()); err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	next, err := bot.player.Skip(bot.ctx, t.GuildID())
	if err != nil && next == nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	t.Respond(bot.builder.SkippedMessage(next), false)
}

func (bot *Bot) onStopCommand(t *transaction.Transaction) {
	if err := bot.permissions.CheckControl(t.GuildID(), t.Member()); err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	if err := bot.player.Stop(bot.ctx, t.GuildID()); err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	t.Respond("⏹ **Stopped and cleared the queue!**", false)
}

func (bot *Bot) onClearCommand(t *transaction.Transaction) {
	if err := bot.permissions.CheckControl(t.GuildID(), t.Member()); err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	removed, err := bot.player.Clear(bot.ctx, t.GuildID())
	if err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	t.Respond(bot.builder.ClearedMessage(removed), false)
}

func (bot *Bot) onQueueCommand(t *transaction.Transaction) {
	snapshot, err := bot.player.Snapshot(bot.ctx, t.GuildID())
	if err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	t.RespondEmbed(bot.builder.QueueEmbed(snapshot), nil, false)
}

func (bot *Bot) onNowPlayingCommand(t *transaction.Transaction) {
	snapshot, err := bot.player.Snapshot(bot.ctx, t.GuildID())
	if err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	if snapshot.NowPlaying == nil {
		t.Respond(bot.builder.ErrorMessage(player.ErrNothingPlaying), true)
		return
	}
	position := int(bot.calls.PlaybackPosition(t.GuildID()).Seconds())
	t.RespondEmbed(
		bot.builder.NowPlayingEmbed(snapshot.NowPlaying, position),
		bot.builder.Controls(),
		false,
	)
}

// userVoiceChannel returns the id of the voice channel the user is
// in, empty if the user is not in any.
func (bot *Bot) userVoiceChannel(guildID string, userID string) string {
	if bot.session == nil || bot.session.State == nil {
		return ""
	}
	state, err := bot.session.State.VoiceState(guildID, userID)
	if err != nil || state == nil {
		return ""
	}
	return state.ChannelID
}

// stringOption returns the value of the interaction's string
// option with the provided name.
func stringOption(t *transaction.Transaction, name string) string {
	for _, o := range t.Interaction().ApplicationCommandData().Options {
		if o.Name == name {
			return strings.TrimSpace(o.StringValue())
		}
	}
	return ""
}
