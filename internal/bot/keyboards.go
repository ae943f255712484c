package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"optiday/internal/model"
)

const (
	btnConfirm      = "✅ Confirm"
	btnCancel       = "↩️ Cancel"
	btnCancelDialog = "⏪ Stop input"
	btnHigh         = "🔴 High"
	btnMedium       = "🟡 Medium"
	btnLow          = "🟢 Low"
	menuNewTask     = "➕ New task"
	menuTasks       = "📋 Tasks"
	menuPlan        = "🗓 Plan my day"
	menuSchedule    = "🕘 Schedule"
	menuPrefs       = "⚙️ Preferences"
	menuHelp        = "ℹ️ Help"
)

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuNewTask),
			tgbotapi.NewKeyboardButton(menuTasks),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuPlan),
			tgbotapi.NewKeyboardButton(menuSchedule),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuPrefs),
			tgbotapi.NewKeyboardButton(menuHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func durationKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("15 min"),
			tgbotapi.NewKeyboardButton("30 min"),
			tgbotapi.NewKeyboardButton("1 h"),
			tgbotapi.NewKeyboardButton("2 h"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnHigh),
			tgbotapi.NewKeyboardButton(btnMedium),
			tgbotapi.NewKeyboardButton(btnLow),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// taskKeyboard has one row per task: toggle completion and delete.
func taskKeyboard(tasks []model.Task) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for i, task := range tasks {
		label := fmt.Sprintf("⬜ %d · %s", i+1, shortTitle(task.Title, 22))
		if task.IsCompleted {
			label = fmt.Sprintf("↩️ %d · %s", i+1, shortTitle(task.Title, 22))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbTogglePrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
