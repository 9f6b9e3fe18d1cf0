package bot

import "github.com/bwmarrin/discordgo"

type DiscordEventHandler struct {
	*Bot
}

// setHandlers adds handlers for discord events to the
// provided session.
// It Adds handler for ready, voice state update
// and interaction create events, but it determines
// the type of interaction and calls the appropriate function.
func (bot *DiscordEventHandler) setHandlers() {
	bot.session.AddHandler(
		func(s *discordgo.Session, r *discordgo.Ready) {
			bot.onReady(s, r)
		},
	)
	bot.session.AddHandler(
		func(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
			if len(v.GuildID) > 0 && bot.ready.Load() &&
				v.UserID == s.State.User.ID {

				bot.onVoiceStateUpdate(v)
			}
		},
	)
	bot.session.AddHandler(
		func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if len(i.GuildID) == 0 || !bot.ready.Load() ||
				i.Interaction.AppID != s.State.User.ID {
				return
			}
			switch i.Interaction.Type {
			case discordgo.InteractionApplicationCommand:
				t := bot.transactions.New(
					"Interaction/ApplicationCommand",
					i.Interaction,
				)
				// NOTE: handle the interactions concurrently, a play
				// command may take a while to resolve
				go bot.onApplicationCommand(t)
			case discordgo.InteractionMessageComponent:
				if i.Interaction.MessageComponentData().ComponentType !=
					discordgo.ButtonComponent {
					return
				}
				t := bot.transactions.New(
					"Interaction/ButtonClick",
					i.Interaction,
				)
				go bot.onButtonClick(t)
			}
		},
	)
}
