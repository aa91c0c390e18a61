package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"unicode/utf8"
)

// ErrRenderFailed оборачивает любую ошибку рендерера.
var ErrRenderFailed = errors.New("render failed")

// Engine отрисовывает экраны и ведёт историю переходов по каждому диалогу.
type Engine struct {
	transport    Transport
	registry     *Registry
	store        *Store
	format       TextFormat
	captionLimit int
	log          *slog.Logger
}

// Option определяет функциональную опцию для конфигурации движка.
type Option func(*Engine)

// WithStore подменяет хранилище навигации (например, чтобы делить его между движками в тестах).
func WithStore(s *Store) Option {
	return func(e *Engine) {
		if s != nil {
			e.store = s
		}
	}
}

// WithRegistry подменяет реестр рендереров.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithDefaultFormat задаёт формат текста для экранов без явного формата.
func WithDefaultFormat(f TextFormat) Option {
	return func(e *Engine) {
		if f != "" {
			e.format = f
		}
	}
}

// WithCaptionLimit задаёт порог длины подписи к медиа.
func WithCaptionLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.captionLimit = n
		}
	}
}

// WithLogger устанавливает логгер движка.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine создает движок навигации поверх транспорта.
func NewEngine(t Transport, opts ...Option) *Engine {
	e := &Engine{
		transport:    t,
		registry:     NewRegistry(),
		store:        NewStore(),
		format:       FormatHTML,
		captionLimit: DefaultCaptionLimit,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register регистрирует рендерер для префикса.
func (e *Engine) Register(prefix string, r Renderer, opts ...RouteOption) {
	e.registry.Register(prefix, r, opts...)
}

// ValidateRoutes проверяет зарегистрированные префиксы. Вызывается один раз на старте.
func (e *Engine) ValidateRoutes() error {
	return e.registry.Validate()
}

type showOptions struct {
	push       bool
	replaceTop bool
	clearInput bool
	params     map[string]string
}

// ShowOption настраивает ShowScreen.
type ShowOption func(*showOptions)

// WithoutPush отрисовывает экран, не меняя историю.
func WithoutPush() ShowOption {
	return func(o *showOptions) { o.push = false }
}

// ReplaceTop заменяет вершину истории вместо добавления нового элемента.
func ReplaceTop() ShowOption {
	return func(o *showOptions) { o.replaceTop = true }
}

// ClearInputMode убирает активную reply-клавиатуру перед отрисовкой.
func ClearInputMode() ShowOption {
	return func(o *showOptions) { o.clearInput = true }
}

// WithParams передаёт рендереру дополнительный контекст.
func WithParams(params map[string]string) ShowOption {
	return func(o *showOptions) {
		if o.params == nil {
			o.params = make(map[string]string, len(params))
		}
		maps.Copy(o.params, params)
	}
}

// ShowScreen удаляет предыдущий экран диалога, отрисовывает новый и обновляет историю.
func (e *Engine) ShowScreen(ctx context.Context, chatID int64, screenID string, opts ...ShowOption) error {
	o := showOptions{push: true}
	for _, opt := range opts {
		opt(&o)
	}

	c := e.store.conv(chatID)
	c.mu.Lock()
	defer c.mu.Unlock()

	return e.show(ctx, chatID, c, screenID, o)
}

// Back возвращает диалог на предыдущий экран. Если история пуста,
// отрисовывается fallback и добавляется в историю.
func (e *Engine) Back(ctx context.Context, chatID int64, fallback string, opts ...ShowOption) error {
	o := showOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	c := e.store.conv(chatID)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pop()
	if prev, ok := c.peek(); ok {
		o.push, o.replaceTop = false, false
		return e.show(ctx, chatID, c, prev, o)
	}

	o.push, o.replaceTop = true, false
	return e.show(ctx, chatID, c, fallback, o)
}

// Push добавляет идентификатор в историю без отрисовки.
func (e *Engine) Push(chatID int64, screenID string) {
	c := e.store.conv(chatID)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.push(screenID)
}

// Pop снимает вершину истории.
func (e *Engine) Pop(chatID int64) (string, bool) {
	c := e.store.conv(chatID)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pop()
}

// Peek возвращает вершину истории.
func (e *Engine) Peek(chatID int64) (string, bool) {
	c := e.store.conv(chatID)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peek()
}

// Clear очищает историю диалога.
func (e *Engine) Clear(chatID int64) {
	c := e.store.conv(chatID)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clear()
}

// Stack возвращает копию истории диалога.
func (e *Engine) Stack(chatID int64) []string {
	c := e.store.conv(chatID)
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.stack...)
}

// LastMessages возвращает идентификаторы сообщений последнего отрисованного экрана.
func (e *Engine) LastMessages(chatID int64) []int {
	c := e.store.conv(chatID)
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.lastIDs...)
}

// Forget удаляет сообщения текущего экрана, не отрисовывая новый.
func (e *Engine) Forget(ctx context.Context, chatID int64) {
	c := e.store.conv(chatID)
	c.mu.Lock()
	defer c.mu.Unlock()
	e.deleteLast(ctx, chatID, c, e.log.With(slog.Int64("chat_id", chatID)))
}

// show выполняет протокол отрисовки. Вызывается под c.mu.
func (e *Engine) show(ctx context.Context, chatID int64, c *conversation, screenID string, o showOptions) error {
	prefix, renderer, err := e.registry.Resolve(screenID)
	if err != nil {
		return err
	}

	log := e.log.With(slog.Int64("chat_id", chatID), slog.String("screen", screenID))

	e.deleteLast(ctx, chatID, c, log)

	if o.clearInput {
		e.clearInputMode(ctx, chatID, log)
	}

	params := make(map[string]string, len(o.params)+1)
	maps.Copy(params, o.params)
	params["screen_id"] = screenID

	screen, err := renderer(ctx, chatID, RenderContext{ScreenID: screenID, Prefix: prefix, Params: params})
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrRenderFailed, screenID, err)
	}

	ids, err := e.dispatch(ctx, chatID, screen)
	// Частично отправленный экран тоже записываем, чтобы следующая отрисовка его удалила.
	c.lastIDs = ids
	if err != nil {
		return fmt.Errorf("send screen %q: %w", screenID, err)
	}

	switch {
	case o.push && o.replaceTop:
		c.replaceTop(screenID)
	case o.push:
		c.push(screenID)
	}

	log.Debug("screen rendered", slog.Int("messages", len(ids)), slog.Int("depth", len(c.stack)))
	return nil
}

// deleteLast удаляет сообщения предыдущего экрана. Ошибки не возвращаются:
// сообщение могли удалить вручную или диалог заблокирован.
func (e *Engine) deleteLast(ctx context.Context, chatID int64, c *conversation, log *slog.Logger) {
	for _, id := range c.lastIDs {
		if err := e.transport.DeleteMessage(ctx, chatID, id); err != nil {
			log.Debug("failed to delete previous message", slog.Int("message_id", id), slog.Any("error", err))
		}
	}
	c.lastIDs = nil
}

// clearInputMode отправляет служебное сообщение, снимающее reply-клавиатуру, и сразу удаляет его.
// У транспорта нет способа убрать клавиатуру без отправки сообщения.
func (e *Engine) clearInputMode(ctx context.Context, chatID int64, log *slog.Logger) {
	id, err := e.transport.SendText(ctx, chatID, OutgoingText{
		Text:                PlaceholderText,
		Format:              FormatPlain,
		RemoveReplyKeyboard: true,
	})
	if err != nil {
		log.Warn("failed to clear reply keyboard", slog.Any("error", err))
		return
	}
	if err := e.transport.DeleteMessage(ctx, chatID, id); err != nil {
		log.Debug("failed to delete reply keyboard remover", slog.Int("message_id", id), slog.Any("error", err))
	}
}

// dispatch отправляет экран и возвращает идентификаторы созданных сообщений.
func (e *Engine) dispatch(ctx context.Context, chatID int64, s Screen) ([]int, error) {
	text := s.Text
	if strings.TrimSpace(text) == "" {
		text = PlaceholderText
	}
	format := s.Format
	if format == "" {
		format = e.format
	}
	kb := normalizeKeyboard(s.Keyboard)

	textMsg := OutgoingText{
		Text:            text,
		Keyboard:        kb,
		Format:          format,
		ShowLinkPreview: s.ShowLinkPreview,
	}

	media := usableMedia(s.Content)
	if media == nil {
		id, err := e.transport.SendText(ctx, chatID, textMsg)
		if err != nil {
			return nil, err
		}
		return []int{id}, nil
	}

	_, replyMode := kb.(ReplyKeyboard)
	if !replyMode && utf8.RuneCountInString(text) <= e.captionLimit {
		id, err := e.transport.SendMedia(ctx, chatID, OutgoingMedia{
			Content:  media,
			Caption:  text,
			Keyboard: kb,
			Format:   format,
		})
		if err != nil {
			return nil, err
		}
		return []int{id}, nil
	}

	// Медиа отдельно, текст с клавиатурой следом.
	mediaID, err := e.transport.SendMedia(ctx, chatID, OutgoingMedia{Content: media, Format: format})
	if err != nil {
		return nil, err
	}
	textID, err := e.transport.SendText(ctx, chatID, textMsg)
	if err != nil {
		return []int{mediaID}, err
	}
	return []int{mediaID, textID}, nil
}

// normalizeKeyboard превращает пустые клавиатуры в отсутствие клавиатуры.
func normalizeKeyboard(kb Keyboard) Keyboard {
	switch k := kb.(type) {
	case InlineKeyboard:
		if len(k.Rows) == 0 {
			return nil
		}
	case ReplyKeyboard:
		if len(k.Rows) == 0 {
			return nil
		}
	}
	return kb
}
