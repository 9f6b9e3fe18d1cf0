package builder

import (
	"fmt"
	"rhythmix/datastore/history"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Stats are the bot's runtime statistics.
type Stats struct {
	Uptime       string
	RSSBytes     uint64
	Goroutines   int
	SystemMemory float64
	Chats        int
	// Plays are -1 when the history is disabled
	TotalPlays int
	TotalChats int
	ChatPlays  int
	TopSongs   []*history.SongPlays
}

// StatsText renders the stats as tables in a code block.
func (builder *Builder) StatsText(stats *Stats) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Stat", "Value"})
	t.AppendRows([]table.Row{
		{"Uptime", stats.Uptime},
		{"Memory", formatBytes(stats.RSSBytes)},
		{"System memory", fmt.Sprintf("%.1f%%", stats.SystemMemory)},
		{"Goroutines", stats.Goroutines},
		{"Active chats", stats.Chats},
	})
	if stats.TotalPlays >= 0 {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"Songs played", stats.TotalPlays},
			{"Chats served", stats.TotalChats},
			{"Played here", stats.ChatPlays},
		})
	}
	s := "📊 **Stats**\n```\n" + t.Render() + "\n```"

	if len(stats.TopSongs) == 0 {
		return s
	}
	top := table.NewWriter()
	top.SetStyle(table.StyleLight)
	top.AppendHeader(table.Row{"#", "Song", "Plays"})
	for i, song := range stats.TopSongs {
		title := []rune(song.Title)
		if len(title) > 32 {
			title = append(title[:31], '…')
		}
		top.AppendRow(table.Row{i + 1, string(title), song.Plays})
	}
	return s + "\n🔥 **Top songs**\n```\n" + top.Render() + "\n```"
}

func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
