// Package builder renders the bot's responses: embeds, buttons
// and texts. It holds no state besides its configuration.
package builder

import (
	"fmt"
	"math"
	"rhythmix/model"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

type Configuration struct {
	Title  string `yaml:"Title" validate:"required"`
	Footer string `yaml:"Footer"`
	// QueueLimit is the number of pending songs displayed
	QueueLimit int            `yaml:"QueueLimit" validate:"required,min=1"`
	Buttons    *ButtonsConfig `yaml:"Buttons" validate:"required"`
}

type ButtonsConfig struct {
	Pause  string `yaml:"Pause" validate:"required"`
	Resume string `yaml:"Resume" validate:"required"`
	Skip   string `yaml:"Skip" validate:"required"`
	Stop   string `yaml:"Stop" validate:"required"`
	Queue  string `yaml:"Queue" validate:"required"`
}

type Builder struct {
	config *Configuration
}

var platformColors = map[model.Platform]int{
	model.YouTube:    0xff0000,
	model.Spotify:    0x1db954,
	model.SoundCloud: 0xff5500,
	model.Other:      0x5865f2,
}

// NewBuilder constructs an object that handles building
// the bot's responses based on the playback state.
func NewBuilder(config *Configuration) *Builder {
	return &Builder{config: config}
}

// ButtonsConfig returns the builder's buttons config.
func (builder *Builder) ButtonsConfig() *ButtonsConfig {
	return builder.config.Buttons
}

// NowPlayingEmbed maps the provided song to a message embed.
// The playback position bar is added when the song is not live,
// position is the song's playback position in seconds.
func (builder *Builder) NowPlayingEmbed(song *model.Song, position int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       builder.config.Title,
		Description: "🎵 **Now Playing:** " + builder.songLink(song),
		Color:       platformColors[song.Platform],
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Duration",
				Value:  model.FormatDuration(song.Duration),
				Inline: true,
			},
			{
				Name:   "Requested by",
				Value:  builder.requester(song),
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: builder.config.Footer,
		},
	}
	if bar := builder.getPlaybackPositionBar(song.Duration, position); len(bar) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "\u200b",
			Value: bar,
		})
	}
	if len(song.Thumbnail) > 0 {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: song.Thumbnail}
	}
	return embed
}

// QueueEmbed maps the chat's snapshot to a message embed.
func (builder *Builder) QueueEmbed(snapshot *model.Snapshot) *discordgo.MessageEmbed {
	color := platformColors[model.Other]
	if snapshot.NowPlaying != nil {
		color = platformColors[snapshot.NowPlaying.Platform]
	}
	return &discordgo.MessageEmbed{
		Title:       builder.config.Title,
		Description: builder.QueueText(snapshot),
		Color:       color,
		Footer: &discordgo.MessageEmbedFooter{
			Text: builder.config.Footer,
		},
	}
}

// QueueText lists the song currently playing and the first
// QueueLimit pending songs with their durations, followed by
// the number of the songs that were not listed.
func (builder *Builder) QueueText(snapshot *model.Snapshot) string {
	if snapshot == nil || snapshot.Size() == 0 {
		return "📭 **Queue is empty!**"
	}
	var sb strings.Builder
	if snapshot.NowPlaying != nil {
		fmt.Fprintf(
			&sb,
			"🎵 **Now Playing:**\n%s `[%s]`\n\n",
			builder.songLink(snapshot.NowPlaying),
			model.FormatDuration(snapshot.NowPlaying.Duration),
		)
	}
	if len(snapshot.Queue) == 0 {
		sb.WriteString("📭 Nothing else in the queue")
		return sb.String()
	}
	sb.WriteString("📋 **Queue:**\n")
	for i, song := range snapshot.Queue {
		if i >= builder.config.QueueLimit {
			fmt.Fprintf(&sb, "\n... and %d more", len(snapshot.Queue)-i)
			break
		}
		fmt.Fprintf(
			&sb,
			"**%d.** %s `[%s]`\n",
			i+1,
			builder.ShortName(song.Title),
			model.FormatDuration(song.Duration),
		)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// Controls constructs the buttons attached to the now playing
// messages.
func (builder *Builder) Controls() []discordgo.MessageComponent {
	buttons := builder.config.Buttons
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				builder.newButton(buttons.Pause, discordgo.SecondaryButton),
				builder.newButton(buttons.Resume, discordgo.SecondaryButton),
				builder.newButton(buttons.Skip, discordgo.PrimaryButton),
			},
		},
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				builder.newButton(buttons.Stop, discordgo.DangerButton),
				builder.newButton(buttons.Queue, discordgo.SecondaryButton),
			},
		},
	}
}

// GetButtonLabelFromComponentData returns the button's label from
// it's customID
func (builder *Builder) GetButtonLabelFromComponentData(data discordgo.MessageComponentInteractionData) string {
	return strings.Split(data.CustomID, "<split>")[0]
}

// ShortName escapes the markdown in the song's name and
// shortens it to 40 characters, so that the queue
// entries appear of similar lengths.
func (builder *Builder) ShortName(name string) string {
	name = builder.escape(name)
	r := []rune(name)
	if len(r) <= 40 {
		return name
	}
	return strings.TrimSpace(string(r[:40])) + "..."
}

func (builder *Builder) songLink(song *model.Song) string {
	name := builder.escape(song.Title)
	if model.IsURL(song.WebpageURL) {
		return fmt.Sprintf("[%s](%s)", name, song.WebpageURL)
	}
	return "**" + name + "**"
}

func (builder *Builder) requester(song *model.Song) string {
	if len(song.RequesterID) > 0 {
		return "<@" + song.RequesterID + ">"
	}
	if len(song.Requester) > 0 {
		return song.Requester
	}
	return "Unknown"
}

// escape replaces the ` quotes with ' so there are no code blocks
// and escapes the characters that would format the name.
func (builder *Builder) escape(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "`", "'")
	for _, c := range []string{"*", "_", "~", "|", "[", "]"} {
		name = strings.ReplaceAll(name, c, `\`+c)
	}
	return name
}

func (builder *Builder) newButton(label string, style discordgo.ButtonStyle) discordgo.Button {
	return discordgo.Button{
		CustomID: label + "<split>" + uuid.NewString(),
		Label:    label,
		Style:    style,
	}
}

// getPlaybackPositionBar constructs a playback position bar from the provided
// duration and position, where duration is the duration of a song in seconds, and position
// is the current playback position in seconds
func (builder *Builder) getPlaybackPositionBar(duration int, position int) string {
	if duration < 10 {
		return ""
	}
	if position < 0 {
		position = 0
	}
	if position > duration {
		position = duration
	}
	s1 := model.FormatDuration(position)
	if position == 0 {
		s1 = "0:00"
	}
	s2 := model.FormatDuration(duration)
	n := 15
	if len(s1)+len(s2) > 9 {
		n -= int(math.Floor(float64(len(s1)+len(s2)-9) / float64(2)))
	}
	if n < 10 {
		n = 10
	}
	loader := fmt.Sprintf("**%s**\u3000", s1)
	x := int(math.Round(float64(position*n) / float64(duration)))
	y := int(math.Floor(float64(n-x) / float64(2)))
	if x > 0 {
		loader += strings.Repeat("━", x)
	}
	loader += "•"
	if y > 0 {
		loader += strings.Repeat("\u2000·\u2000", y)
	}
	if (n-x)/2 > y {
		loader += " ·"
	}
	loader += fmt.Sprintf("\u3000**%s**", s2)
	return loader
}
