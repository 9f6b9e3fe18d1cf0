package slash_command

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

type ChatCommandConfig struct {
	Name        string `yaml:"Name" validate:"required"`
	Description string `yaml:"Description" validate:"required"`
}

type SlashCommandsConfig struct {
	Play        *ChatCommandConfig `yaml:"Play" validate:"required"`
	Pause       *ChatCommandConfig `yaml:"Pause" validate:"required"`
	Resume      *ChatCommandConfig `yaml:"Resume" validate:"required"`
	Skip        *ChatCommandConfig `yaml:"Skip" validate:"required"`
	Stop        *ChatCommandConfig `yaml:"Stop" validate:"required"`
	Clear       *ChatCommandConfig `yaml:"Clear" validate:"required"`
	Queue       *ChatCommandConfig `yaml:"Queue" validate:"required"`
	NowPlaying  *ChatCommandConfig `yaml:"NowPlaying" validate:"required"`
	Lyrics      *ChatCommandConfig `yaml:"Lyrics" validate:"required"`
	Ping        *ChatCommandConfig `yaml:"Ping" validate:"required"`
	Help        *ChatCommandConfig `yaml:"Help" validate:"required"`
	Stats       *ChatCommandConfig `yaml:"Stats" validate:"required"`
	Reboot      *ChatCommandConfig `yaml:"Reboot" validate:"required"`
	Maintenance *ChatCommandConfig `yaml:"Maintenance" validate:"required"`
	Block       *ChatCommandConfig `yaml:"Block" validate:"required"`
	Unblock     *ChatCommandConfig `yaml:"Unblock" validate:"required"`
}

// Names of the commands' options
const (
	QueryOption = "query"
	SongOption  = "song"
	ModeOption  = "mode"
	UserOption  = "user"
)

// Commands constructs the global slash commands of the bot.
func Commands(config *SlashCommandsConfig) []*discordgo.ApplicationCommand {
	simple := func(c *ChatCommandConfig) *discordgo.ApplicationCommand {
		return &discordgo.ApplicationCommand{
			Name:        c.Name,
			Description: c.Description,
		}
	}
	withOption := func(c *ChatCommandConfig, option *discordgo.ApplicationCommandOption) *discordgo.ApplicationCommand {
		cmd := simple(c)
		cmd.Options = []*discordgo.ApplicationCommandOption{option}
		return cmd
	}
	return []*discordgo.ApplicationCommand{
		withOption(config.Play, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        QueryOption,
			Description: "Song name or link",
			Required:    true,
		}),
		simple(config.Pause),
		simple(config.Resume),
		simple(config.Skip),
		simple(config.Stop),
		simple(config.Clear),
		simple(config.Queue),
		simple(config.NowPlaying),
		withOption(config.Lyrics, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        SongOption,
			Description: "Name of the song",
			Required:    true,
		}),
		simple(config.Ping),
		simple(config.Help),
		simple(config.Stats),
		simple(config.Reboot),
		withOption(config.Maintenance, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        ModeOption,
			Description: "Enable or disable the maintenance mode",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "on", Value: "on"},
				{Name: "off", Value: "off"},
			},
		}),
		withOption(config.Block, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        UserOption,
			Description: "User to block",
			Required:    true,
		}),
		withOption(config.Unblock, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        UserOption,
			Description: "User to unblock",
			Required:    true,
		}),
	}
}

// Diff returns the registered commands that no longer match any of the
// commands and the commands that are not yet registered.
func Diff(registered []*discordgo.ApplicationCommand, commands []*discordgo.ApplicationCommand) (toDelete []*discordgo.ApplicationCommand, toAdd []*discordgo.ApplicationCommand) {
	toDelete = make([]*discordgo.ApplicationCommand, 0)
	toAdd = make([]*discordgo.ApplicationCommand, 0)

	for _, v := range registered {
		del := true
		for _, v2 := range commands {
			if equal(v, v2) {
				del = false
				break
			}
		}
		if del {
			toDelete = append(toDelete, v)
		}
	}
	for _, v := range commands {
		add := true
		for _, v2 := range registered {
			if equal(v, v2) {
				add = false
				break
			}
		}
		if add {
			toAdd = append(toAdd, v)
		}
	}
	return
}

// Register deletes all of the bot's previously registered global
// slash commands that changed, then registers the new ones.
func Register(session *discordgo.Session, config *SlashCommandsConfig) error {
	// NOTE: guildID  is an empty string, so the commands are
	// global
	guildID := ""

	// fetch all global application commands defined by
	// the bot user
	registeredCommands, err := session.ApplicationCommands(
		session.State.User.ID,
		guildID,
	)
	if err != nil {
		return fmt.Errorf("Could not fetch global application commands: %v", err)
	}
	toDelete, toAdd := Diff(registeredCommands, Commands(config))

	// delete the outdated global application commands
	for _, v := range toDelete {
		if err := session.ApplicationCommandDelete(
			session.State.User.ID,
			guildID,
			v.ID,
		); err != nil {
			return fmt.Errorf(
				"Could not delete global application command '%v': %v",
				v.Name,
				err,
			)
		}
	}
	// register the new global application commands
	for _, cmd := range toAdd {
		if _, err := session.ApplicationCommandCreate(
			session.State.User.ID,
			guildID,
			cmd,
		); err != nil {
			return fmt.Errorf(
				"Could not create global application command '%v': %v",
				cmd.Name,
				err,
			)
		}
	}
	return nil
}

func equal(a *discordgo.ApplicationCommand, b *discordgo.ApplicationCommand) bool {
	if a.Name != b.Name || a.Description != b.Description ||
		len(a.Options) != len(b.Options) {
		return false
	}
	for i := range a.Options {
		if a.Options[i].Name != b.Options[i].Name ||
			a.Options[i].Type != b.Options[i].Type ||
			len(a.Options[i].Choices) != len(b.Options[i].Choices) {
			return false
		}
	}
	return true
}
