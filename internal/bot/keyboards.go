package bot

import (
	"github.com/mattn/go-runewidth"

	"form-bronze-bot/internal/navigation"
)

// Подписи кнопок reply-клавиатур: по ним же распознаётся выбор пользователя.
const (
	btnSendPhone   = "📱 Отправить номер телефона"
	btnSkip        = "⏭ Пропустить"
	btnDeletePhone = "🗑 Удалить телефон"
	btnCancel      = "✖️ Отмена"
)

// maxLabelWidth: ширина подписи кнопки в экранных колонках.
const maxLabelWidth = 40

// Данные кнопок, общие для нескольких разделов.
const (
	dataMainMenu = "menu:main"
	dataBack     = "nav:back"
)

// label обрезает подпись до maxLabelWidth колонок с учётом широких символов и эмодзи.
func label(s string) string {
	return runewidth.Truncate(s, maxLabelWidth, "…")
}

func button(text, data string) navigation.InlineButton {
	return navigation.InlineButton{Text: label(text), Data: data}
}

// column раскладывает кнопки по одной в ряд.
func column(buttons ...navigation.InlineButton) [][]navigation.InlineButton {
	rows := make([][]navigation.InlineButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []navigation.InlineButton{b})
	}
	return rows
}

// grid раскладывает кнопки рядами по n.
func grid(n int, buttons ...navigation.InlineButton) [][]navigation.InlineButton {
	var rows [][]navigation.InlineButton
	for len(buttons) > 0 {
		k := min(n, len(buttons))
		rows = append(rows, buttons[:k:k])
		buttons = buttons[k:]
	}
	return rows
}

func inline(rows ...[]navigation.InlineButton) navigation.InlineKeyboard {
	return navigation.InlineKeyboard{Rows: rows}
}

func mainMenuButton() navigation.InlineButton {
	return button("🏠 Главное меню", dataMainMenu)
}

func backButton() navigation.InlineButton {
	return button("⬅️ Назад", dataBack)
}

// navRow: ряд "Назад" и "Главное меню".
func navRow() []navigation.InlineButton {
	return []navigation.InlineButton{backButton(), mainMenuButton()}
}

// yesNoRow: ряд "Да"/"Нет" с данными prefix:yes и prefix:no.
func yesNoRow(prefix string) []navigation.InlineButton {
	return []navigation.InlineButton{button("Да", prefix+":yes"), button("Нет", prefix+":no")}
}

func mainMenuKeyboard(registered bool) navigation.InlineKeyboard {
	buttons := []navigation.InlineButton{
		button("🏺 Наши скульптуры", "menu:sculptures"),
		button("🏛 О галерее", "menu:about"),
		button("⭐ Спецпроекты", "menu:projects"),
		button("🎨 Дизайнер", "menu:designer"),
	}
	if registered {
		buttons = append(buttons,
			button("👤 Пригласите главного", "menu:invite_main"),
			button("⚙️ Настройки", "menu:settings"),
		)
	} else {
		buttons = append(buttons,
			button("📇 Контакты", "menu:guest_contacts"),
			button("⚙️ Настройки", "menu:guest_settings"),
		)
	}
	return inline(column(buttons...)...)
}

// phoneKeyboard: запрос контакта с дополнительными вариантами.
func phoneKeyboard(extra ...string) navigation.ReplyKeyboard {
	rows := [][]navigation.ReplyButton{{{Text: btnSendPhone, RequestContact: true}}}
	for _, t := range extra {
		rows = append(rows, []navigation.ReplyButton{{Text: t}})
	}
	return navigation.ReplyKeyboard{Rows: rows, Resize: true, OneTime: true}
}
