package bot

import (
	"rhythmix/model"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// NowPlaying sends the now playing message to the text channel
// the guild's last command was used in.
func (bot *Bot) NowPlaying(guildID string, song *model.Song) {
	bot.notify(guildID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{bot.builder.NowPlayingEmbed(song, 0)},
		Components: bot.builder.Controls(),
	})
}

func (bot *Bot) SongFailed(guildID string, song *model.Song, err error) {
	bot.notify(guildID, &discordgo.MessageSend{
		Content: bot.builder.SongFailedMessage(song, err),
	})
}

func (bot *Bot) Finished(guildID string) {
	bot.notify(guildID, &discordgo.MessageSend{
		Content: bot.builder.FinishedMessage(),
	})
}

// notify sends the message in the background, as the notifier
// is called while the guild's queue is held.
func (bot *Bot) notify(guildID string, message *discordgo.MessageSend) {
	channelID, ok := bot.textChannel(guildID)
	if !ok || bot.session == nil || !bot.ready.Load() {
		bot.log.WithField("GuildID", guildID).Trace(
			"No text channel to notify, skipping",
		)
		return
	}
	session := bot.session
	go func() {
		if _, err := session.ChannelMessageSendComplex(channelID, message); err != nil {
			bot.log.WithFields(log.Fields{
				"GuildID":   guildID,
				"ChannelID": channelID,
			}).Warnf("Could not send the notification: %v", err)
		}
	}()
}
