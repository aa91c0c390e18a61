// Package log содержит обработчики slog бота: маскировку секретов и
// персональных данных и адаптер логгера telegram-bot-api.
package log

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// MaskingHandler - обертка для slog.Handler, которая маскирует токены бота,
// адреса почты и телефоны в сообщениях и атрибутах.
type MaskingHandler struct {
	handler slog.Handler
}

// NewMaskingHandler создает новый обработчик с маскировкой
func NewMaskingHandler(handler slog.Handler) *MaskingHandler {
	return &MaskingHandler{
		handler: handler,
	}
}

var (
	// токены в формате botID:token (в URL API) и ID:token (как в BOT_TOKEN)
	urlTokenRegex  = regexp.MustCompile(`\bbot\d+:[A-Za-z0-9_-]{35,}`)
	bareTokenRegex = regexp.MustCompile(`\b\d{6,}:[A-Za-z0-9_-]{35,}`)
	emailRegex     = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	// телефоны хранятся нормализованными: + и цифры
	phoneRegex = regexp.MustCompile(`\+\d{7,15}\b`)
)

// Mask заменяет секреты и персональные данные в тексте на маски.
func Mask(text string) string {
	text = urlTokenRegex.ReplaceAllString(text, "bot***:***masked-token***")
	text = bareTokenRegex.ReplaceAllString(text, "***:***masked-token***")
	text = emailRegex.ReplaceAllStringFunc(text, maskEmail)
	text = phoneRegex.ReplaceAllStringFunc(text, maskPhone)
	return text
}

// maskEmail оставляет первый символ имени и домен: j***@example.com.
func maskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

// maskPhone оставляет две последние цифры: +***67.
func maskPhone(phone string) string {
	return "+***" + phone[len(phone)-2:]
}

// Enabled реализует интерфейс slog.Handler
func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler
func (h *MaskingHandler) Handle(ctx context.Context, record slog.Record) error {
	// Новая запись вместо изменения исходной: slog может переиспользовать record.
	r := slog.NewRecord(record.Time, record.Level, Mask(record.Message), record.PC)

	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(maskAttr(a))
		return true
	})

	return h.handler.Handle(ctx, r)
}

// WithAttrs реализует интерфейс slog.Handler
func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		maskedAttrs[i] = maskAttr(attr)
	}
	return &MaskingHandler{
		handler: h.handler.WithAttrs(maskedAttrs),
	}
}

// WithGroup реализует интерфейс slog.Handler
func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{
		handler: h.handler.WithGroup(name),
	}
}

func maskAttr(a slog.Attr) slog.Attr {
	return slog.Attr{Key: a.Key, Value: maskAttributeValue(a.Value)}
}

// maskAttributeValue рекурсивно маскирует значения атрибутов
func maskAttributeValue(value slog.Value) slog.Value {
	value = value.Resolve()
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(Mask(value.String()))
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return slog.StringValue(Mask(err.Error()))
		}
		return value
	case slog.KindGroup:
		group := value.Group()
		maskedGroup := make([]slog.Attr, len(group))
		for i, attr := range group {
			maskedGroup[i] = maskAttr(attr)
		}
		return slog.GroupValue(maskedGroup...)
	default:
		return value
	}
}

// NewMaskedLogger создает новый экземпляр slog.Logger с маскировкой
func NewMaskedLogger(handler slog.Handler) *slog.Logger {
	return slog.New(NewMaskingHandler(handler))
}
