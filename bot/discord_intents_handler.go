package bot

import "github.com/bwmarrin/discordgo"

type DiscordIntentsHandler struct {
	*Bot
}

// setIntents sets the intents for the session, required
// by the music bot
func (bot *DiscordIntentsHandler) setIntents() {
	//NOTE: guilds for interactions in guilds and the roles,
	// voice states for finding the voice channel to join
	// and the voice state update events
	bot.session.Identify.Intents =
		discordgo.IntentsGuilds +
			discordgo.IntentsGuildVoiceStates
}
