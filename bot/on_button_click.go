package bot

import (
	"rhythmix/bot/transaction"
)

// onButtonClick is a handler function called when a user
// clicks a button on a now playing message of the bot.
// The buttons act the same as the matching slash commands.
func (bot *DiscordEventHandler) onButtonClick(t *transaction.Transaction) {
	defer t.Defer()

	label := bot.builder.GetButtonLabelFromComponentData(
		t.Interaction().MessageComponentData(),
	)
	bot.log.WithField("GuildID", t.GuildID()).Tracef("Button clicked (%s)", label)

	if err := bot.permissions.CheckCommand(t.UserID()); err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	bot.rememberChannel(t.GuildID(), t.ChannelID())

	buttons := bot.builder.ButtonsConfig()
	switch label {
	case buttons.Pause:
		bot.onPauseCommand(t)
	case buttons.Resume:
		bot.onResumeCommand(t)
	case buttons.Skip:
		bot.onSkipCommand(t)
	case buttons.Stop:
		bot.onStopCommand(t)
	case buttons.Queue:
		bot.onQueueCommand(t)
	default:
		t.Respond("Sorry, something went wrong ...", true)
	}
}
