package bot

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLen            = 50
	maxEmailLen           = 120
	minPhoneDigits        = 7
	maxCollectionTitleLen = 80
	maxSculptureTitleLen  = 120
	maxLinkTextLen        = 40
	maxSculpturePhotos    = 6
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// validName проверяет имя: непустое, не длиннее 50 символов.
func validName(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && utf8.RuneCountInString(s) <= maxNameLen
}

func validEmail(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, len(s) <= maxEmailLen && emailRegex.MatchString(s)
}

// normalizePhone оставляет только цифры и добавляет "+". Меньше 7 цифр, не телефон.
func normalizePhone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() < minPhoneDigits {
		return "", false
	}
	return "+" + b.String(), true
}

// validTitle проверяет длину обязательного текстового поля.
func validTitle(s string, max int) (string, bool) {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	return s, n > 0 && n <= max
}

func validURL(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// optional превращает "-" в пустое значение.
func optional(s string) string {
	s = strings.TrimSpace(s)
	if s == "-" {
		return ""
	}
	return s
}
