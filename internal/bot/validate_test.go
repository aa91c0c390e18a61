package bot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidName(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		valid bool
	}{
		{name: "Обычное имя", in: "Анна", want: "Анна", valid: true},
		{name: "Пробелы обрезаются", in: "  Анна  ", want: "Анна", valid: true},
		{name: "Пустое", in: "   ", want: "", valid: false},
		{name: "Ровно 50 символов", in: strings.Repeat("я", 50), want: strings.Repeat("я", 50), valid: true},
		{name: "Длиннее 50 символов", in: strings.Repeat("я", 51), want: strings.Repeat("я", 51), valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := validName(tt.in)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{in: "user@example.com", valid: true},
		{in: " user@example.com ", valid: true},
		{in: "user@example", valid: false},
		{in: "user example@mail.ru", valid: false},
		{in: "@example.com", valid: false},
		{in: strings.Repeat("a", 115) + "@b.com", valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, ok := validEmail(tt.in)
			assert.Equal(t, tt.valid, ok)
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		valid bool
	}{
		{name: "С форматированием", in: "+7 (999) 123-45-67", want: "+79991234567", valid: true},
		{name: "Только цифры", in: "89991234567", want: "+89991234567", valid: true},
		{name: "Семь цифр", in: "1234567", want: "+1234567", valid: true},
		{name: "Слишком короткий", in: "12-34-56", valid: false},
		{name: "Текст", in: "позвоните мне", valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := normalizePhone(tt.in)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidURL(t *testing.T) {
	for in, valid := range map[string]bool{
		"https://example.com":  true,
		"http://example.com/a": true,
		"ftp://example.com":    false,
		"example.com":          false,
	} {
		_, ok := validURL(in)
		assert.Equal(t, valid, ok, in)
	}
}

func TestOptional(t *testing.T) {
	assert.Equal(t, "", optional(" - "))
	assert.Equal(t, "Бронза", optional(" Бронза "))
}

func TestYesNoArg(t *testing.T) {
	assert.Equal(t, "yes", yesNoArg("adm:sc:bc:yes"))
	assert.Equal(t, "no", yesNoArg("adm:sc:bc:no"))
	assert.Equal(t, "no", yesNoArg("adm:sc:bc"))
}

func TestIsFileIDCommand(t *testing.T) {
	assert.True(t, isFileIDCommand("/fileid"))
	assert.True(t, isFileIDCommand("  /fileid@gallery_bot extra"))
	assert.False(t, isFileIDCommand("/fileids"))
	assert.False(t, isFileIDCommand(""))
}
