package bot

import (
	"rhythmix/bot/transaction"
	"strings"
)

// onApplicationCommand is a handler function called when discord emits
// INTERACTION_CREATE event and the interaction's type is applicationCommand.
func (bot *DiscordEventHandler) onApplicationCommand(t *transaction.Transaction) {
	defer t.Defer()

	// NOTE: an application command has been used,
	// determine which one.
	name := strings.TrimSpace(
		t.Interaction().ApplicationCommandData().Name,
	)
	bot.log.WithField("GuildID", t.GuildID()).Tracef("Command used (%s)", name)

	if err := bot.permissions.CheckCommand(t.UserID()); err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	bot.rememberChannel(t.GuildID(), t.ChannelID())

	commands := bot.config.SlashCommands
	switch name {
	case commands.Play.Name:
		bot.onPlayCommand(t)
	case commands.Pause.Name:
		bot.onPauseCommand(t)
	case commands.Resume.Name:
		bot.onResumeCommand(t)
	case commands.Skip.Name:
		bot.onSkipCommand(t)
	case commands.Stop.Name:
		bot.onStopCommand(t)
	case commands.Clear.Name:
		bot.onClearCommand(t)
	case commands.Queue.Name:
		bot.onQueueCommand(t)
	case commands.NowPlaying.Name:
		bot.onNowPlayingCommand(t)
	case commands.Lyrics.Name:
		bot.onLyricsCommand(t)
	case commands.Ping.Name:
		bot.onPingCommand(t)
	case commands.Help.Name:
		bot.onHelpCommand(t)
	case commands.Stats.Name:
		bot.onStatsCommand(t)
	case commands.Reboot.Name:
		bot.onRebootCommand(t)
	case commands.Maintenance.Name:
		bot.onMaintenanceCommand(t)
	case commands.Block.Name:
		bot.onBlockCommand(t, true)
	case commands.Unblock.Name:
		bot.onBlockCommand(t, false)
	default:
		t.Respond("Sorry, something went wrong ...", true)
	}
}
