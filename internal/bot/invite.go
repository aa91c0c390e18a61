package bot

import (
	"context"
	"fmt"
	"html"

	"form-bronze-bot/internal/domain"
	"form-bronze-bot/internal/navigation"
	"form-bronze-bot/internal/telegram"
	"form-bronze-bot/internal/telegram/router"
)

const stepInvitePhone = "invite:phone"

const (
	screenInviteMain  = "invite_main"
	screenInviteCity  = "invite_city"
	screenInvitePhone = "invite_phone"
	screenInviteDone  = "invite_done"
)

const (
	dataInviteCity = "invite:city"
	dataInviteMe   = "invite:me"
	dataCity       = "city"
)

func (b *Bot) registerInvite(r *router.Router) {
	b.engine.Register(screenInviteMain, b.renderInviteMain)
	b.engine.Register(screenInviteCity, b.renderInviteCity)
	b.engine.Register(screenInvitePhone, b.renderInvitePhone)
	b.engine.Register(screenInviteDone, b.renderInviteDone)

	r.HandleCallback("menu:invite_main", b.registeredOnly(b.open(screenInviteMain)))
	r.HandleCallback(dataInviteCity, b.registeredOnly(b.open(screenInviteCity)))
	r.HandleCallback(dataCity, b.registeredOnly(b.handleCity))
	r.HandleCallback(dataInviteMe, b.registeredOnly(b.handleInviteMe))
	r.HandleStep(stepInvitePhone, b.handleInvitePhone)
}

// registeredOnly отправляет гостя на экран регистрации вместо обработчика.
func (b *Bot) registeredOnly(next router.Handler) router.Handler {
	return func(ctx context.Context, ev telegram.Event) error {
		ok, err := b.registered(ctx, ev.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return b.show(ctx, ev.ChatID, screenSettingsGuest)
		}
		return next(ctx, ev)
	}
}

func (b *Bot) renderInviteMain(context.Context, int64, navigation.RenderContext) (navigation.Screen, error) {
	return navigation.Screen{
		Text:    textInviteMain,
		Content: b.photo("photo_invite"),
		Keyboard: inline(append(column(
			button("🏙 Визит в город", dataInviteCity),
			button("📞 Пригласить к себе", dataInviteMe),
		), navRow())...),
	}, nil
}

func (b *Bot) renderInviteCity(context.Context, int64, navigation.RenderContext) (navigation.Screen, error) {
	buttons := make([]navigation.InlineButton, 0, len(domain.Cities))
	for _, c := range domain.Cities {
		buttons = append(buttons, button(c.Label(), dataCity+":"+string(c)))
	}
	return navigation.Screen{
		Text:     textInviteCity,
		Keyboard: inline(append(grid(2, buttons...), navRow())...),
	}, nil
}

func (b *Bot) renderInvitePhone(_ context.Context, _ int64, rc navigation.RenderContext) (navigation.Screen, error) {
	return navigation.Screen{
		Text:     withHint(rc, textInvitePhoneAsk),
		Keyboard: phoneKeyboard(btnCancel),
	}, nil
}

func (b *Bot) renderInviteDone(context.Context, int64, navigation.RenderContext) (navigation.Screen, error) {
	return navigation.Screen{
		Text:     textInviteDone,
		Keyboard: inline([]navigation.InlineButton{mainMenuButton()}),
	}, nil
}

func (b *Bot) handleCity(ctx context.Context, ev telegram.Event) error {
	city := domain.City(argOf(ev.Data, dataCity))
	if !city.Valid() {
		return fmt.Errorf("unknown city in %q: %w", ev.Data, errBadCallback)
	}
	if err := b.repo.UpdateProfile(ctx, ev.UserID, domain.ProfileUpdate{City: &city}); err != nil {
		return err
	}
	return b.completeInvite(ctx, ev, domain.VisitRequest{
		TelegramID:    ev.UserID,
		City:          city,
		ContactMethod: domain.ContactCity,
		ContactValue:  city.Label(),
	}, false)
}

// handleInviteMe использует сохранённый телефон или просит его.
func (b *Bot) handleInviteMe(ctx context.Context, ev telegram.Event) error {
	u, err := b.user(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if u != nil && u.Phone != "" {
		return b.completeInvite(ctx, ev, domain.VisitRequest{
			TelegramID:    ev.UserID,
			ContactMethod: domain.ContactPhone,
			ContactValue:  u.Phone,
		}, false)
	}
	b.states.Begin(ev.ChatID, stepInvitePhone, nil)
	return b.show(ctx, ev.ChatID, screenInvitePhone)
}

func (b *Bot) handleInvitePhone(ctx context.Context, ev telegram.Event) error {
	var raw string
	switch {
	case ev.Kind == telegram.KindText && ev.Text == btnCancel:
		b.states.Clear(ev.ChatID)
		fallback, err := b.menuScreen(ctx, ev.UserID)
		if err != nil {
			return err
		}
		return b.engine.Back(ctx, ev.ChatID, fallback, navigation.ClearInputMode())
	case ev.Kind == telegram.KindContact:
		raw = ev.Phone
	case ev.Kind == telegram.KindText:
		raw = ev.Text
	}
	phone, ok := normalizePhone(raw)
	if !ok {
		return b.showHint(ctx, ev.ChatID, screenInvitePhone, textPhoneInvalid)
	}
	if err := b.repo.UpdateProfile(ctx, ev.UserID, domain.ProfileUpdate{Phone: &phone}); err != nil {
		return err
	}
	b.states.Clear(ev.ChatID)
	return b.completeInvite(ctx, ev, domain.VisitRequest{
		TelegramID:    ev.UserID,
		ContactMethod: domain.ContactPhone,
		ContactValue:  phone,
	}, true)
}

// completeInvite сохраняет заявку, уведомляет администраторов и показывает подтверждение.
// История сбрасывается, чтобы "назад" не вернул в уже пройденный сценарий.
func (b *Bot) completeInvite(ctx context.Context, ev telegram.Event, v domain.VisitRequest, clearInput bool) error {
	if _, err := b.repo.CreateVisitRequest(ctx, v); err != nil {
		return err
	}
	u, err := b.user(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if u != nil {
		title := "📞 <b>Пригласить к себе</b>"
		if v.ContactMethod == domain.ContactCity {
			title = "🏙 <b>Визит в город: " + html.EscapeString(v.City.Label()) + "</b>"
		}
		b.notifyAdmins(ctx, "🔔 Новая заявка «Пригласите главного»\n"+title+"\n\n"+userCard(u, ev))
	}

	b.engine.Clear(ev.ChatID)
	var opts []navigation.ShowOption
	if clearInput {
		opts = append(opts, navigation.ClearInputMode())
	}
	return b.show(ctx, ev.ChatID, screenInviteDone, opts...)
}
