package router

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"form-bronze-bot/internal/navigation"
	"form-bronze-bot/internal/telegram"
)

// ErrNoRoute возвращается, когда для события не нашлось обработчика.
var ErrNoRoute = errors.New("no route for event")

// Handler обрабатывает одно входящее событие.
type Handler func(ctx context.Context, ev telegram.Event) error

// Middleware оборачивает обработчик.
type Middleware func(Handler) Handler

// CallbackAnswerer подтверждает нажатия inline-кнопок.
type CallbackAnswerer interface {
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// StepSource возвращает текущий шаг диалога; пустая строка, диалог вне пошагового ввода.
type StepSource interface {
	Step(chatID int64) string
}

type route struct {
	prefix  string
	handler Handler
	toast   string
}

// RouteOption настраивает отдельный маршрут.
type RouteOption func(*route)

// Toast задаёт текст всплывающей подсказки при подтверждении нажатия.
func Toast(text string) RouteOption {
	return func(r *route) {
		r.toast = text
	}
}

// With оборачивает обработчик маршрута в middleware.
func With(mws ...Middleware) RouteOption {
	return func(r *route) {
		for i := len(mws) - 1; i >= 0; i-- {
			r.handler = mws[i](r.handler)
		}
	}
}

// AdminOnly пропускает события только от администраторов, остальные молча отбрасываются.
func AdminOnly(isAdmin func(userID int64) bool) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, ev telegram.Event) error {
			if isAdmin == nil || !isAdmin(ev.UserID) {
				return nil
			}
			return next(ctx, ev)
		}
	}
}

// Option определяет функциональную опцию для конфигурации роутера.
type Option func(*Router)

// WithLogger: опция для установки логгера.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// WithSteps: опция для подключения хранилища шагов диалога.
func WithSteps(s StepSource) Option {
	return func(r *Router) {
		r.steps = s
	}
}

// Router выбирает обработчик события: команда → кнопка → шаг диалога → медиа → текст по умолчанию.
type Router struct {
	mu        sync.RWMutex
	commands  map[string]route
	callbacks map[string]route
	stepRoute map[string]route
	media     Handler
	fallback  Handler
	mws       []Middleware

	answerer CallbackAnswerer
	steps    StepSource
	log      *slog.Logger
}

// New создает роутер. answerer используется для подтверждения нажатий кнопок.
func New(answerer CallbackAnswerer, opts ...Option) *Router {
	r := &Router{
		commands:  make(map[string]route),
		callbacks: make(map[string]route),
		stepRoute: make(map[string]route),
		answerer:  answerer,
		log:       slog.Default().With("component", "router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use добавляет middleware ко всем обработчикам.
func (r *Router) Use(mws ...Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mws = append(r.mws, mws...)
}

// HandleCommand регистрирует обработчик команды (без слэша).
func (r *Router) HandleCommand(name string, h Handler, opts ...RouteOption) {
	r.add(r.commands, strings.TrimPrefix(name, "/"), h, opts)
}

// HandleCallback регистрирует обработчик кнопок. Данные кнопки сопоставляются с префиксом
// так же, как идентификаторы экранов: совпадение целиком или префикс с разделителем.
func (r *Router) HandleCallback(prefix string, h Handler, opts ...RouteOption) {
	r.add(r.callbacks, prefix, h, opts)
}

// HandleStep регистрирует обработчик пошагового ввода для шага или семейства шагов.
func (r *Router) HandleStep(step string, h Handler, opts ...RouteOption) {
	r.add(r.stepRoute, step, h, opts)
}

// HandleMedia регистрирует обработчик медиа вне пошагового ввода.
func (r *Router) HandleMedia(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.media = h
}

// Fallback регистрирует обработчик текста, не попавшего ни в один маршрут.
func (r *Router) Fallback(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = h
}

func (r *Router) add(table map[string]route, key string, h Handler, opts []RouteOption) {
	rt := route{prefix: key, handler: h}
	for _, opt := range opts {
		opt(&rt)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	table[key] = rt
}

// Handle маршрутизирует событие. Возвращает ErrNoRoute, если обработчик не найден.
func (r *Router) Handle(ctx context.Context, ev telegram.Event) error {
	h, err := r.resolve(ctx, ev)
	if err != nil {
		return err
	}

	r.mu.RLock()
	mws := r.mws
	r.mu.RUnlock()
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h(ctx, ev)
}

func (r *Router) resolve(ctx context.Context, ev telegram.Event) (Handler, error) {
	log := r.log.With(slog.Int64("chat_id", ev.ChatID), slog.String("kind", string(ev.Kind)))

	r.mu.RLock()
	defer r.mu.RUnlock()

	switch ev.Kind {
	case telegram.KindCommand:
		if rt, ok := r.commands[ev.Command]; ok {
			return rt.handler, nil
		}
		log.DebugContext(ctx, "unknown command", slog.String("command", ev.Command))
		return nil, ErrNoRoute

	case telegram.KindCallback:
		rt, ok := longestMatch(r.callbacks, ev.Data)
		r.ack(ctx, ev, rt.toast)
		if !ok {
			log.DebugContext(ctx, "unknown callback", slog.String("data", ev.Data))
			return nil, ErrNoRoute
		}
		return rt.handler, nil
	}

	if r.steps != nil {
		if step := r.steps.Step(ev.ChatID); step != "" {
			if rt, ok := longestMatch(r.stepRoute, step); ok {
				return rt.handler, nil
			}
			log.DebugContext(ctx, "no handler for step", slog.String("step", step))
		}
	}

	if ev.Kind == telegram.KindMedia && r.media != nil {
		return r.media, nil
	}
	if ev.Kind == telegram.KindText && r.fallback != nil && !strings.HasPrefix(ev.Text, "/") {
		return r.fallback, nil
	}
	return nil, ErrNoRoute
}

// ack подтверждает нажатие до запуска обработчика, чтобы у пользователя пропал индикатор загрузки.
func (r *Router) ack(ctx context.Context, ev telegram.Event, toast string) {
	if r.answerer == nil {
		return
	}
	if err := r.answerer.AnswerCallback(ctx, ev.CallbackID, toast); err != nil {
		r.log.DebugContext(ctx, "answer callback failed", slog.Int64("chat_id", ev.ChatID), slog.Any("error", err))
	}
}

// Callbacks возвращает зарегистрированные префиксы кнопок в отсортированном виде.
func (r *Router) Callbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.callbacks))
	for p := range r.callbacks {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func longestMatch(table map[string]route, key string) (route, bool) {
	var best route
	found := false
	for prefix, rt := range table {
		if !navigation.MatchesPrefix(key, prefix) {
			continue
		}
		if !found || len(prefix) > len(best.prefix) {
			best = rt
			found = true
		}
	}
	return best, found
}
