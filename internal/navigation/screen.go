// Package navigation реализует движок экранов: историю переходов по каждому диалогу,
// реестр рендереров и протокол "удалить предыдущее, отправить новое".
package navigation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// PlaceholderText подставляется вместо пустого текста экрана:
// транспорт не принимает сообщения без тела.
const PlaceholderText = "…"

// DefaultCaptionLimit: консервативный порог длины подписи к медиа (в символах),
// оставляющий запас до протокольного максимума на разметку.
const DefaultCaptionLimit = 1000

// placeholderPrefix помечает ещё не загруженные медиа в конфигурации.
const placeholderPrefix = "PLACEHOLDER"

// TextFormat определяет режим разметки текста.
type TextFormat string

const (
	FormatHTML       TextFormat = "HTML"
	FormatMarkdownV2 TextFormat = "MarkdownV2"
	FormatPlain      TextFormat = "plain"
)

// Content: медиа-часть экрана. nil означает экран только с текстом.
type Content interface {
	fileID() string
}

// Photo: экран с фотографией.
type Photo struct {
	FileID string
}

func (p Photo) fileID() string { return p.FileID }

// Video: экран с видео.
type Video struct {
	FileID string
}

func (v Video) fileID() string { return v.FileID }

// usableMedia возвращает медиа, если оно реально может быть отправлено.
// Пустые и PLACEHOLDER-идентификаторы считаются отсутствующими.
func usableMedia(c Content) Content {
	if c == nil {
		return nil
	}
	id := strings.TrimSpace(c.fileID())
	if id == "" || strings.HasPrefix(id, placeholderPrefix) {
		return nil
	}
	return c
}

// Keyboard: клавиатура экрана: nil, InlineKeyboard или ReplyKeyboard.
// Одновременно может быть только одна.
type Keyboard interface {
	isKeyboard()
}

// InlineButton: кнопка, привязанная к сообщению. Заполняется Data или URL.
type InlineButton struct {
	Text string
	Data string
	URL  string
}

// InlineKeyboard: кнопки под конкретным сообщением.
type InlineKeyboard struct {
	Rows [][]InlineButton
}

func (InlineKeyboard) isKeyboard() {}

// ReplyButton: кнопка, заменяющая поле ввода.
type ReplyButton struct {
	Text           string
	RequestContact bool
}

// ReplyKeyboard заменяет поле ввода диалога.
type ReplyKeyboard struct {
	Rows    [][]ReplyButton
	Resize  bool
	OneTime bool
}

func (ReplyKeyboard) isKeyboard() {}

// Screen: декларативное описание одного "хода" бота.
type Screen struct {
	Text     string
	Content  Content
	Keyboard Keyboard
	// ShowLinkPreview включает превью ссылок; по умолчанию превью подавляется.
	ShowLinkPreview bool
	// Format переопределяет формат текста движка по умолчанию.
	Format TextFormat
}

// RenderContext передаётся рендереру при отрисовке.
type RenderContext struct {
	// ScreenID: полный идентификатор экрана, например "collection:42:0".
	ScreenID string
	// Prefix: зарегистрированный префикс, выбранный при разрешении.
	Prefix string
	Params map[string]string
}

// Args возвращает сегменты идентификатора после префикса.
func (rc RenderContext) Args() []string {
	rest := strings.TrimPrefix(rc.ScreenID, rc.Prefix)
	rest = strings.TrimPrefix(rest, ":")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, ":")
}

// Arg возвращает i-й параметр или пустую строку.
func (rc RenderContext) Arg(i int) string {
	args := rc.Args()
	if i < 0 || i >= len(args) {
		return ""
	}
	return args[i]
}

// IntArg разбирает i-й параметр как целое число.
func (rc RenderContext) IntArg(i int) (int, error) {
	raw := rc.Arg(i)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("screen %q: parameter %d is not an integer: %w", rc.ScreenID, i, err)
	}
	return n, nil
}

// Param возвращает значение из дополнительного контекста.
func (rc RenderContext) Param(key string) string {
	return rc.Params[key]
}

// Renderer строит экран по идентификатору и контексту.
// Рендерер не должен вызывать методы движка для того же диалога.
type Renderer func(ctx context.Context, chatID int64, rc RenderContext) (Screen, error)

// OutgoingText: текстовое сообщение для транспорта.
type OutgoingText struct {
	Text            string
	Keyboard        Keyboard
	Format          TextFormat
	ShowLinkPreview bool
	// RemoveReplyKeyboard просит транспорт убрать активную reply-клавиатуру.
	RemoveReplyKeyboard bool
}

// OutgoingMedia: медиа-сообщение для транспорта. Пустой Caption означает медиа без подписи.
type OutgoingMedia struct {
	Content  Content
	Caption  string
	Keyboard Keyboard
	Format   TextFormat
}

// Transport: исходящая часть транспорта, которой пользуется движок.
type Transport interface {
	SendText(ctx context.Context, chatID int64, msg OutgoingText) (int, error)
	SendMedia(ctx context.Context, chatID int64, msg OutgoingMedia) (int, error)
	// DeleteMessage должен быть терпим к "не найдено" и "запрещено".
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}
