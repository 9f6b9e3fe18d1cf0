package transaction

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type Transactions struct {
	id      uint
	mutex   sync.Mutex
	log     *log.Logger
	session func() *discordgo.Session
}

// Transaction holds an interaction recieved from the user
// and responds to it.
type Transaction struct {
	id              uint
	t               string
	interaction     *discordgo.Interaction
	started         time.Time
	responded       bool
	done            bool
	allTransactions *Transactions
}

// NewTransactions constructs a new object that handles the
// creation of Transaction objects
func NewTransactions(s func() *discordgo.Session, log *log.Logger) *Transactions {
	return &Transactions{
		id:      0,
		log:     log,
		session: s,
	}
}

// New constructs a new Transaction object for the provided interaction.
func (t *Transactions) New(tp string, interaction *discordgo.Interaction) *Transaction {
	t.mutex.Lock()
	id := t.id
	t.id = (t.id + 1) % 100000
	t.mutex.Unlock()

	t.log.WithFields(log.Fields{
		"ID":      id,
		"Type":    tp,
		"GuildID": interaction.GuildID,
	}).Debug("Started new transaction ...")
	return &Transaction{
		id:              id,
		t:               tp,
		interaction:     interaction,
		started:         time.Now(),
		allTransactions: t,
	}
}

// Interaction returns the interaction stored in the transaction
func (t *Transaction) Interaction() *discordgo.Interaction {
	return t.interaction
}

// GuildID returns the id of the guild the interaction was created in
func (t *Transaction) GuildID() string {
	return t.interaction.GuildID
}

// ChannelID returns the id of the text channel the interaction
// was created in
func (t *Transaction) ChannelID() string {
	return t.interaction.ChannelID
}

// Member returns the member that created the interaction
func (t *Transaction) Member() *discordgo.Member {
	return t.interaction.Member
}

// UserID returns the id of the user that created the interaction
func (t *Transaction) UserID() string {
	if t.interaction.Member != nil && t.interaction.Member.User != nil {
		return t.interaction.Member.User.ID
	}
	if t.interaction.User != nil {
		return t.interaction.User.ID
	}
	return ""
}

// UserName returns the display name of the user that
// created the interaction
func (t *Transaction) UserName() string {
	if m := t.interaction.Member; m != nil {
		if len(m.Nick) > 0 {
			return m.Nick
		}
		if m.User != nil {
			return m.User.Username
		}
	}
	if t.interaction.User != nil {
		return t.interaction.User.Username
	}
	return ""
}

// Latency returns the time since the transaction was started.
func (t *Transaction) Latency() time.Duration {
	return time.Since(t.started)
}

// Respond responds to the interaction with the provided content.
// Once responded, the response is edited instead.
func (t *Transaction) Respond(content string, ephemeral bool) {
	t.respond(&discordgo.InteractionResponseData{Content: content}, ephemeral)
}

// RespondEmbed responds to the interaction with the provided embed
// and components. Once responded, the response is edited instead.
func (t *Transaction) RespondEmbed(embed *discordgo.MessageEmbed, components []discordgo.MessageComponent, ephemeral bool) {
	t.respond(&discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}, ephemeral)
}

func (t *Transaction) respond(data *discordgo.InteractionResponseData, ephemeral bool) {
	session := t.allTransactions.session()
	var err error
	if t.responded {
		edit := &discordgo.WebhookEdit{Content: &data.Content}
		if len(data.Embeds) > 0 {
			edit.Embeds = &data.Embeds
		}
		if len(data.Components) > 0 {
			edit.Components = &data.Components
		}
		_, err = session.InteractionResponseEdit(t.interaction, edit)
	} else {
		if ephemeral {
			data.Flags = discordgo.MessageFlagsEphemeral
		}
		err = session.InteractionRespond(t.interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: data,
		})
		t.responded = err == nil
	}
	if err != nil {
		t.allTransactions.log.WithFields(log.Fields{
			"ID":      t.id,
			"Type":    t.t,
			"GuildID": t.GuildID(),
		}).Errorf("Error when responding to interaction: %v", err)
	}
}

// Acknowledge acknowledges a button click without
// sending a response.
func (t *Transaction) Acknowledge() {
	if t.responded {
		return
	}
	if err := t.allTransactions.session().InteractionRespond(
		t.interaction,
		&discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		},
	); err != nil {
		t.allTransactions.log.WithField("GuildID", t.GuildID()).Errorf(
			"Error when acknowledging interaction: %v", err,
		)
		return
	}
	t.responded = true
}

// Defer marks the transaction as completed.
func (t *Transaction) Defer() {
	if t.done {
		return
	}
	t.allTransactions.log.WithFields(log.Fields{
		"ID":      t.id,
		"Type":    t.t,
		"GuildID": t.GuildID(),
		"Latency": t.Latency(),
	}).Debug(
		"Transaction done",
	)
	t.done = true
}
