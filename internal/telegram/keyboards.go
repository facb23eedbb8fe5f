package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Menu labels. Reply keyboards send the label text back verbatim, so these
// double as routing keys.
const (
	CommandStart = "/start"

	LabelUserMenu = "🔙 User menu"
	LabelChannels = "📢 Our channels"
	LabelDonate   = "💸 Donate"
	LabelHelp     = "ℹ️ Help"

	LabelStats          = "📊 Statistics"
	LabelExportUsers    = "👥 Export users"
	LabelBroadcast      = "📣 Broadcast"
	LabelAdmins         = "👨‍💻 Admins"
	LabelManageChannels = "📢 Channels"
	LabelAddAdmin       = "➕ Add admin"
	LabelRemoveAdmin    = "➖ Remove admin"
	LabelListAdmins     = "📋 Admin list"
	LabelAddChannel     = "➕ Add channel"
	LabelRemoveChannel  = "➖ Remove channel"
	LabelListChannels   = "📋 Channel list"
	LabelAdminPanel     = "🔙 Admin panel"

	LabelCancel = "❌ Cancel"
)

// createKeyboard lays buttons out in rows of rowWidth
func createKeyboard(rowWidth int, buttons ...string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, b := range buttons {
		row = append(row, tgbotapi.NewKeyboardButton(b))
		if len(row) == rowWidth {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

// UserMenu is the keyboard shown to regular users
func UserMenu() tgbotapi.ReplyKeyboardMarkup {
	return createKeyboard(2, LabelChannels, LabelDonate, LabelHelp)
}

// AdminMenu is the admin panel keyboard
func AdminMenu() tgbotapi.ReplyKeyboardMarkup {
	return createKeyboard(2,
		LabelStats, LabelExportUsers,
		LabelBroadcast, LabelAdmins,
		LabelManageChannels, LabelUserMenu,
	)
}

// AdminsMenu manages the admin set
func AdminsMenu() tgbotapi.ReplyKeyboardMarkup {
	return createKeyboard(2, LabelAddAdmin, LabelRemoveAdmin, LabelListAdmins, LabelAdminPanel)
}

// ChannelsMenu manages the channel registry
func ChannelsMenu() tgbotapi.ReplyKeyboardMarkup {
	return createKeyboard(2, LabelAddChannel, LabelRemoveChannel, LabelListChannels, LabelAdminPanel)
}

// CancelKeyboard is shown while a prompt is pending
func CancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return createKeyboard(1, LabelCancel)
}
