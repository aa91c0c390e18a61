package bot

import (
	"context"
	"log/slog"

	"form-bronze-bot/internal/navigation"
	"form-bronze-bot/internal/telegram"
	"form-bronze-bot/internal/telegram/router"
)

const screenHint = "hint"

func (b *Bot) registerCore(r *router.Router) {
	b.engine.Register(screenWelcome, b.renderWelcome)
	b.engine.Register(screenMenuRegistered, b.renderMenu(true))
	b.engine.Register(screenMenuGuest, b.renderMenu(false))
	b.engine.Register(screenHint, b.renderOpenMenuHint)

	r.HandleCommand("start", b.handleStart)
	r.HandleCommand("menu", b.handleMainMenu)
	r.HandleCommand("cancel", b.handleCancel)
	r.HandleCallback(dataMainMenu, b.handleMainMenu)
	r.HandleCallback("menu:guest", b.handleGuestMenu)
	r.HandleCallback(dataBack, b.handleBack)
	r.Fallback(b.handleFreeText)
}

func (b *Bot) renderWelcome(_ context.Context, _ int64, rc navigation.RenderContext) (navigation.Screen, error) {
	return navigation.Screen{
		Text:     withHint(rc, textWelcome),
		Content:  b.photo("photo_welcome"),
		Keyboard: inline(column(button("🤝 Познакомиться", "start:meet"), button("👀 Смотреть без регистрации", "menu:guest"))...),
	}, nil
}

func (b *Bot) renderMenu(registered bool) navigation.Renderer {
	return func(_ context.Context, _ int64, rc navigation.RenderContext) (navigation.Screen, error) {
		text := textMenuGuest
		if registered {
			text = textMenuRegistered
		}
		return navigation.Screen{
			Text:     withHint(rc, text),
			Content:  b.photo("photo_menu"),
			Keyboard: mainMenuKeyboard(registered),
		}, nil
	}
}

func (b *Bot) renderOpenMenuHint(context.Context, int64, navigation.RenderContext) (navigation.Screen, error) {
	return navigation.Screen{
		Text:     textOpenMenuHint,
		Keyboard: inline([]navigation.InlineButton{mainMenuButton()}),
	}, nil
}

// handleStart начинает диалог с чистого листа. Аргумент /start (deep link) принимается,
// но не влияет на сценарий.
func (b *Bot) handleStart(ctx context.Context, ev telegram.Event) error {
	b.states.Clear(ev.ChatID)
	if err := b.repo.EnsureUser(ctx, ev.UserID); err != nil {
		return err
	}
	if ev.Args != "" {
		b.log.InfoContext(ctx, "start with payload", slog.Int64("chat_id", ev.ChatID), slog.String("payload", ev.Args))
	}

	ok, err := b.registered(ctx, ev.UserID)
	if err != nil {
		return err
	}
	b.engine.Clear(ev.ChatID)
	if ok {
		return b.show(ctx, ev.ChatID, screenMenuRegistered, navigation.ClearInputMode())
	}
	return b.show(ctx, ev.ChatID, screenWelcome, navigation.ClearInputMode())
}

// handleMainMenu сбрасывает историю и сценарий и показывает главное меню.
func (b *Bot) handleMainMenu(ctx context.Context, ev telegram.Event) error {
	b.states.Clear(ev.ChatID)
	id, err := b.menuScreen(ctx, ev.UserID)
	if err != nil {
		return err
	}
	b.engine.Clear(ev.ChatID)
	return b.show(ctx, ev.ChatID, id, navigation.ClearInputMode())
}

func (b *Bot) handleGuestMenu(ctx context.Context, ev telegram.Event) error {
	b.states.Clear(ev.ChatID)
	b.engine.Clear(ev.ChatID)
	return b.show(ctx, ev.ChatID, screenMenuGuest, navigation.ClearInputMode())
}

func (b *Bot) handleBack(ctx context.Context, ev telegram.Event) error {
	b.states.Clear(ev.ChatID)
	fallback, err := b.menuScreen(ctx, ev.UserID)
	if err != nil {
		return err
	}
	return b.engine.Back(ctx, ev.ChatID, fallback)
}

// handleCancel прерывает любой сценарий. Администратор возвращается в панель.
func (b *Bot) handleCancel(ctx context.Context, ev telegram.Event) error {
	b.states.Clear(ev.ChatID)
	target := screenAdmin
	if !b.IsAdmin(ev.UserID) {
		var err error
		if target, err = b.menuScreen(ctx, ev.UserID); err != nil {
			return err
		}
	}
	b.engine.Clear(ev.ChatID)
	return b.show(ctx, ev.ChatID, target,
		navigation.WithParams(map[string]string{paramHint: textCancelled}),
		navigation.ClearInputMode())
}

// handleFreeText отвечает на текст вне сценариев. Повторная подсказка не растит историю.
func (b *Bot) handleFreeText(ctx context.Context, ev telegram.Event) error {
	if top, _ := b.engine.Peek(ev.ChatID); top == screenHint {
		return b.show(ctx, ev.ChatID, screenHint, navigation.WithoutPush())
	}
	return b.show(ctx, ev.ChatID, screenHint)
}
