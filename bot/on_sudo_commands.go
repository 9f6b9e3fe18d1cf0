package bot

import (
	"rhythmix/bot/slash_command"
	"rhythmix/bot/transaction"

	log "github.com/sirupsen/logrus"
)

// onRebootCommand stops the bot so that it is started again,
// the queues of every guild are lost.
func (bot *Bot) onRebootCommand(t *transaction.Transaction) {
	if err := bot.permissions.CheckSudo(t.UserID()); err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	if bot.onReboot == nil {
		t.Respond("❌ Reboot is not supported.", true)
		return
	}
	bot.log.WithField("UserID", t.UserID()).Warn("Reboot requested")
	t.Respond("🔄 **Rebooting ...**", false)
	bot.onReboot()
}

func (bot *Bot) onMaintenanceCommand(t *transaction.Transaction) {
	if err := bot.permissions.CheckSudo(t.UserID()); err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	switch stringOption(t, slash_command.ModeOption) {
	case "on":
		bot.permissions.SetMaintenance(true)
		t.Respond("🛠 **Maintenance mode enabled.**", false)
	case "off":
		bot.permissions.SetMaintenance(false)
		t.Respond("✅ **Maintenance mode disabled.**", false)
	default:
		t.Respond(
			"❌ Usage: `/"+bot.config.SlashCommands.Maintenance.Name+" <on|off>`",
			true,
		)
	}
}

// onBlockCommand blocks or unblocks the user provided
// in the command's options.
func (bot *Bot) onBlockCommand(t *transaction.Transaction, block bool) {
	if err := bot.permissions.CheckSudo(t.UserID()); err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	userID := userOption(t, slash_command.UserOption)
	if len(userID) == 0 {
		t.Respond("❌ No user provided.", true)
		return
	}
	logger := bot.log.WithFields(log.Fields{
		"UserID": t.UserID(),
		"Target": userID,
	})
	if !block {
		if bot.permissions.Unblock(userID) {
			logger.Info("User unblocked")
			t.Respond("✅ <@"+userID+"> has been unblocked.", false)
		} else {
			t.Respond("ℹ️ <@"+userID+"> is not blocked.", true)
		}
		return
	}
	added, err := bot.permissions.Block(userID)
	if err != nil {
		t.Respond(bot.builder.ErrorMessage(err), true)
		return
	}
	if !added {
		t.Respond("ℹ️ <@"+userID+"> is already blocked.", true)
		return
	}
	logger.Info("User blocked")
	t.Respond("🚫 <@"+userID+"> has been blocked.", false)
}

// userOption returns the id of the user provided in the
// interaction's option with the provided name.
func userOption(t *transaction.Transaction, name string) string {
	for _, o := range t.Interaction().ApplicationCommandData().Options {
		if o.Name == name {
			// NOTE: without a session only the
			// user's id is set
			return o.UserValue(nil).ID
		}
	}
	return ""
}
