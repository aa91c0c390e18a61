package log

import (
	"fmt"
	"log/slog"
	"strings"
)

// TGBotAPIAdapter адаптирует slog.Logger под интерфейс логгера,
// который ожидает библиотека go-telegram-bot-api/v5.
type TGBotAPIAdapter struct {
	Logger *slog.Logger
}

// NewTGBotAPIAdapter создает адаптер; сообщения библиотеки помечаются component=tgbotapi.
func NewTGBotAPIAdapter(logger *slog.Logger) *TGBotAPIAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TGBotAPIAdapter{Logger: logger.With("component", "tgbotapi")}
}

// Println реализует метод интерфейса tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Println(v ...interface{}) {
	// Библиотека пишет много служебного шума: только Debug.
	a.Logger.Debug(strings.TrimSpace(fmt.Sprintln(v...)))
}

// Printf реализует метод интерфейса tgbotapi.BotLogger.
func (a *TGBotAPIAdapter) Printf(format string, v ...interface{}) {
	a.Logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
