// Package bot содержит сценарии галереи: экраны меню и каталога, регистрацию,
// настройки, заявки и панель администратора. Все экраны отрисовываются движком навигации,
// многошаговый ввод хранится в хранилище состояний.
package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"form-bronze-bot/internal/domain"
	"form-bronze-bot/internal/navigation"
	"form-bronze-bot/internal/ports"
	"form-bronze-bot/internal/telegram"
	"form-bronze-bot/internal/telegram/router"
)

// Идентификаторы экранов, на которые ссылаются несколько разделов.
const (
	screenWelcome        = "welcome"
	screenMenuRegistered = "menu:registered"
	screenMenuGuest      = "menu:guest"
	screenSettingsGuest  = "settings:guest"
	screenSettingsUser   = "settings:registered"
	screenAdmin          = "admin"
	screenPrompt         = "prompt"
)

// paramHint: параметр экрана с подсказкой над основным текстом.
const paramHint = "hint"

// errBadCallback: данные кнопки не разбираются. Такие кнопки бот не создаёт.
var errBadCallback = errors.New("malformed callback data")

// Deps: зависимости бота.
type Deps struct {
	Engine      *navigation.Engine
	Repo        ports.Repository
	States      ports.StateStore
	Messenger   ports.Messenger
	Broadcaster ports.Broadcaster
	Exporter    ports.Exporter
}

// Bot связывает сценарии галереи с движком экранов и роутером.
type Bot struct {
	engine      *navigation.Engine
	repo        ports.Repository
	states      ports.StateStore
	messenger   ports.Messenger
	broadcaster ports.Broadcaster
	exporter    ports.Exporter

	admins map[int64]struct{}
	media  map[string]string
	log    *slog.Logger
}

// Option определяет функциональную опцию для Bot.
type Option func(*Bot)

// WithAdmins задаёт Telegram ID администраторов.
func WithAdmins(ids []int64) Option {
	return func(b *Bot) {
		for _, id := range ids {
			b.admins[id] = struct{}{}
		}
	}
}

// WithMedia задаёт file id медиа экранов по ключам конфигурации.
func WithMedia(media map[string]string) Option {
	return func(b *Bot) {
		for k, v := range media {
			b.media[k] = v
		}
	}
}

// WithLogger: опция для установки логгера.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bot) {
		if l != nil {
			b.log = l
		}
	}
}

// New создает бота. Экраны и маршруты регистрируются через Register.
func New(d Deps, opts ...Option) *Bot {
	b := &Bot{
		engine:      d.Engine,
		repo:        d.Repo,
		states:      d.States,
		messenger:   d.Messenger,
		broadcaster: d.Broadcaster,
		exporter:    d.Exporter,
		admins:      make(map[int64]struct{}),
		media:       make(map[string]string),
		log:         slog.Default().With("component", "bot"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// IsAdmin сообщает, что пользователь входит в список администраторов.
func (b *Bot) IsAdmin(userID int64) bool {
	_, ok := b.admins[userID]
	return ok
}

// Register регистрирует экраны в движке и обработчики в роутере.
func (b *Bot) Register(r *router.Router) {
	b.registerCore(r)
	b.registerOnboarding(r)
	b.registerCatalog(r)
	b.registerInfo(r)
	b.registerInvite(r)
	b.registerSettings(r)
	b.registerAdmin(r)
	b.registerAdminContent(r)
	b.registerBroadcast(r)
}

// show отрисовывает экран; чат и пользователь в личном диалоге совпадают.
func (b *Bot) show(ctx context.Context, chatID int64, screenID string, opts ...navigation.ShowOption) error {
	return b.engine.ShowScreen(ctx, chatID, screenID, opts...)
}

// showHint перерисовывает экран на месте с подсказкой над текстом.
func (b *Bot) showHint(ctx context.Context, chatID int64, screenID, hint string, opts ...navigation.ShowOption) error {
	opts = append([]navigation.ShowOption{
		navigation.WithoutPush(),
		navigation.WithParams(map[string]string{paramHint: hint}),
	}, opts...)
	return b.engine.ShowScreen(ctx, chatID, screenID, opts...)
}

// withHint добавляет подсказку из параметров экрана к тексту.
func withHint(rc navigation.RenderContext, text string) string {
	if hint := rc.Param(paramHint); hint != "" {
		return hint + "\n\n" + text
	}
	return text
}

// photo возвращает фото по ключу медиа; ненастроенное медиа даёт экран без фото.
func (b *Bot) photo(key string) navigation.Content {
	return navigation.Photo{FileID: b.media[key]}
}

func (b *Bot) video(key string) navigation.Content {
	return navigation.Video{FileID: b.media[key]}
}

// user возвращает профиль или nil, если пользователя нет.
func (b *Bot) user(ctx context.Context, id int64) (*domain.User, error) {
	u, err := b.repo.GetUser(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (b *Bot) registered(ctx context.Context, id int64) (bool, error) {
	u, err := b.user(ctx, id)
	if err != nil {
		return false, err
	}
	return u.IsRegistered(), nil
}

// menuScreen выбирает главное меню по статусу регистрации.
func (b *Bot) menuScreen(ctx context.Context, id int64) (string, error) {
	ok, err := b.registered(ctx, id)
	if err != nil {
		return "", err
	}
	if ok {
		return screenMenuRegistered, nil
	}
	return screenMenuGuest, nil
}

// reply отправляет обычное HTML-сообщение вне истории экранов.
func (b *Bot) reply(ctx context.Context, chatID int64, text string) error {
	_, err := b.messenger.SendText(ctx, chatID, navigation.OutgoingText{Text: text, Format: navigation.FormatHTML})
	if err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

// notifyAdmins рассылает уведомление всем администраторам. Недоставленные уведомления
// только логируются.
func (b *Bot) notifyAdmins(ctx context.Context, text string) {
	for id := range b.admins {
		if _, err := b.messenger.SendText(ctx, id, navigation.OutgoingText{Text: text, Format: navigation.FormatHTML}); err != nil {
			b.log.WarnContext(ctx, "admin notification failed", slog.Int64("admin_id", id), slog.Any("error", err))
		}
	}
}

// userCard: блок с данными пользователя для уведомлений администраторам.
func userCard(u *domain.User, ev telegram.Event) string {
	var sb strings.Builder
	field := func(name, value string) {
		if value == "" {
			value = "—"
		}
		fmt.Fprintf(&sb, "<b>%s:</b> %s\n", name, html.EscapeString(value))
	}
	var role string
	if u.Role != "" {
		role = u.Role.Label()
	}
	field("Имя", u.Name)
	field("Email", u.Email)
	field("Роль", role)
	field("Телефон", u.Phone)
	username := ""
	if ev.Username != "" {
		username = "@" + ev.Username
	}
	field("Username", username)
	fmt.Fprintf(&sb, "<b>Профиль:</b> tg://user?id=%d", ev.UserID)
	return sb.String()
}

// argOf возвращает часть данных кнопки после префикса и разделителя.
func argOf(data, prefix string) string {
	return strings.TrimPrefix(strings.TrimPrefix(data, prefix), navigation.Separator)
}

func adminOnly(b *Bot) router.RouteOption {
	return router.With(router.AdminOnly(b.IsAdmin))
}
