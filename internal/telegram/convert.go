package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"form-bronze-bot/internal/navigation"
)

// replyMarkup преобразует клавиатуру экрана в разметку Bot API. Возвращает nil без клавиатуры.
func replyMarkup(kb navigation.Keyboard) interface{} {
	switch k := kb.(type) {
	case navigation.InlineKeyboard:
		if len(k.Rows) == 0 {
			return nil
		}
		return inlineMarkup(k)
	case navigation.ReplyKeyboard:
		if len(k.Rows) == 0 {
			return nil
		}
		rows := make([][]tgbotapi.KeyboardButton, 0, len(k.Rows))
		for _, row := range k.Rows {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, b := range row {
				if b.RequestContact {
					buttons = append(buttons, tgbotapi.NewKeyboardButtonContact(b.Text))
				} else {
					buttons = append(buttons, tgbotapi.NewKeyboardButton(b.Text))
				}
			}
			rows = append(rows, buttons)
		}
		markup := tgbotapi.NewReplyKeyboard(rows...)
		markup.ResizeKeyboard = k.Resize
		markup.OneTimeKeyboard = k.OneTime
		return markup
	default:
		return nil
	}
}

func inlineMarkup(k navigation.InlineKeyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(k.Rows))
	for _, row := range k.Rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// parseMode переводит формат текста в значение parse_mode.
func parseMode(f navigation.TextFormat) string {
	switch f {
	case navigation.FormatHTML:
		return tgbotapi.ModeHTML
	case navigation.FormatMarkdownV2:
		return tgbotapi.ModeMarkdownV2
	default:
		return ""
	}
}
