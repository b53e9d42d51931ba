package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bunyodbekab/finans-assistent-bot/internal/engine"
)

// replyMarkup converts the engine's transport-neutral keyboard into the
// Bot API markup types.
func replyMarkup(kb *engine.Keyboard) interface{} {
	if kb == nil {
		return nil
	}
	if kb.RemoveReply {
		return tgbotapi.NewRemoveKeyboard(false)
	}
	if len(kb.Inline) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Inline))
		for _, row := range kb.Inline {
			buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, btn := range row {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data))
			}
			rows = append(rows, buttons)
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if len(kb.Reply) > 0 {
		rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Reply))
		for _, row := range kb.Reply {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, label := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, buttons)
		}
		return tgbotapi.NewReplyKeyboard(rows...)
	}
	return nil
}
