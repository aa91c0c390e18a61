// Package term определяет, куда пишет процесс: в терминал или в сборщик логов.
package term

import (
	"os"

	"golang.org/x/term"
)

// Форматы логов.
const (
	FormatJSON = "json"
	FormatText = "text"
	FormatAuto = "auto"
)

// IsTerminal сообщает, что файл подключён к терминалу.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// LogFormat выбирает формат логов. "auto" даёт текст в терминале и JSON
// в контейнере или при перенаправлении вывода.
func LogFormat(format string, interactive bool) string {
	switch format {
	case FormatJSON, FormatText:
		return format
	}
	if interactive {
		return FormatText
	}
	return FormatJSON
}
