package builder

import (
	"context"
	"errors"
	"fmt"
	"rhythmix/bot/permissions"
	"rhythmix/lyrics"
	"rhythmix/model"
	"rhythmix/player"
	"rhythmix/queue"
	"rhythmix/resolver"
	"rhythmix/voice"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	maxLyricsLength   = 4096
	truncatedLyricsAt = 4000
)

// errorMessages maps the known errors to the texts displayed
// to the users, the first matching error wins.
var errorMessages = []struct {
	err     error
	message string
}{
	{permissions.ErrBlocked, "🚫 You are blocked from using this bot."},
	{permissions.ErrMaintenance, "🛠 The bot is under maintenance, try again later."},
	{permissions.ErrNotAdmin, "❌ Only admins can control the playback!"},
	{permissions.ErrNotSudo, "❌ Only sudo users can use this command!"},
	{permissions.ErrRateLimited, "⏳ You are sending requests too fast, slow down a bit."},
	{resolver.ErrPlatformDisabled, "❌ This platform is not enabled!"},
	{resolver.ErrBackendBlocked, "❌ The media source is refusing requests right now, try again later."},
	{resolver.ErrNoAudioStream, "❌ No playable audio found for this song!"},
	{resolver.ErrNotFound, "❌ Song not found!"},
	{voice.ErrNoActiveCall, "❌ Voice chat is not started! Join a voice channel first."},
	{voice.ErrNotInCall, "❌ Nothing is playing!"},
	{voice.ErrTransport, "❌ Could not stream to the voice chat, try again."},
	{queue.ErrQueueFull, "❌ The queue is full!"},
	{player.ErrNothingPlaying, "❌ Nothing is playing!"},
	{lyrics.ErrNotFound, "❌ Lyrics not found!"},
	{context.DeadlineExceeded, "⌛ The request took too long, try again."},
}

// ErrorMessage converts the provided error to a message
// readable by the users.
func (builder *Builder) ErrorMessage(err error) string {
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return m.message
		}
	}
	return "❌ Something went wrong, try again later."
}

// SearchingMessage is sent while the play request is resolved.
func (builder *Builder) SearchingMessage(query string) string {
	return fmt.Sprintf("🔍 **Searching:** `%s`", strings.ReplaceAll(query, "`", "'"))
}

// OutcomeMessage describes the result of a play request.
func (builder *Builder) OutcomeMessage(outcome *player.Outcome) string {
	if outcome.Queued {
		return fmt.Sprintf(
			"✅ **Added to queue at position %d:** %s `[%s]`",
			outcome.Position,
			builder.songLink(outcome.Song),
			model.FormatDuration(outcome.Song.Duration),
		)
	}
	return "🎵 **Now Playing:** " + builder.songLink(outcome.Song)
}

// SongFailedMessage is sent when the song was dropped from
// the queue because it could not be started.
func (builder *Builder) SongFailedMessage(song *model.Song, err error) string {
	return fmt.Sprintf(
		"⚠️ Could not play %s, skipping it.\n%s",
		builder.songLink(song),
		builder.ErrorMessage(err),
	)
}

// FinishedMessage is sent when the queue of the chat is exhausted.
func (builder *Builder) FinishedMessage() string {
	return "✅ **Queue finished!** Leaving the voice chat."
}

// SkippedMessage describes the result of the skip command,
// next is nil when the queue was exhausted.
func (builder *Builder) SkippedMessage(next *model.Song) string {
	if next == nil {
		return "⏭ **Skipped!** The queue is empty."
	}
	return "⏭ **Skipped!** Now playing " + builder.songLink(next)
}

// ClearedMessage describes the result of the clear command.
func (builder *Builder) ClearedMessage(removed int) string {
	if removed == 1 {
		return "🗑 **Removed 1 song from the queue.**"
	}
	return fmt.Sprintf("🗑 **Removed %d songs from the queue.**", removed)
}

// LyricsText formats the lyrics, those longer than 4096
// characters are truncated to 4000 characters.
func (builder *Builder) LyricsText(l *lyrics.Lyrics) string {
	text := l.Text
	if r := []rune(text); len(r) > maxLyricsLength {
		text = string(r[:truncatedLyricsAt]) + "\n\n... [Truncated]"
	}
	return fmt.Sprintf(
		"📝 **Lyrics for %s - %s:**\n\n%s",
		builder.escape(l.Artist),
		builder.escape(l.Title),
		text,
	)
}

// PingText reports the latency of the response and
// the formatted uptime.
func (builder *Builder) PingText(latency time.Duration, uptime string) string {
	return fmt.Sprintf(
		"🏓 **Pong!**\n⚡️ **Latency:** %.2fms\n⏰ **Uptime:** %s",
		float64(latency.Microseconds())/1000,
		uptime,
	)
}

// LyricsEmbed puts the lyrics into an embed, as the embed's
// description allows longer texts than a message.
func (builder *Builder) LyricsEmbed(l *lyrics.Lyrics) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: builder.LyricsText(l),
		Color:       platformColors[model.Other],
		Footer: &discordgo.MessageEmbedFooter{
			Text: builder.config.Footer,
		},
	}
}
