package bot

import (
	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// onVoiceStateUpdate is a handler function called when discord emits
// VoiceStateUpdate event for the bot's own user. The voice calls are
// informed so that a disconnected or moved bot is noticed.
func (bot *Bot) onVoiceStateUpdate(v *discordgo.VoiceStateUpdate) {
	bot.log.WithFields(log.Fields{
		"GuildID":   v.GuildID,
		"ChannelID": v.ChannelID,
	}).Trace("Voice state update")
	bot.calls.OnVoiceStateUpdate(v)
}
