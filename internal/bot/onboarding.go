package bot

import (
	"context"

	"form-bronze-bot/internal/domain"
	"form-bronze-bot/internal/navigation"
	"form-bronze-bot/internal/telegram"
	"form-bronze-bot/internal/telegram/router"
)

// Шаги регистрации.
const (
	stepRegName  = "reg:name"
	stepRegEmail = "reg:email"
	stepRegRole  = "reg:role"
	stepRegPhone = "reg:phone"
)

const (
	screenConsent       = "consent"
	screenConsentMore   = "consent_more"
	screenConsentDenied = "consent_denied"
	screenNameAsk       = "name_ask"
	screenEmailAsk      = "email_ask"
	screenRoleAsk       = "role_ask"
	screenPhoneAsk      = "phone_ask"
)

func (b *Bot) registerOnboarding(r *router.Router) {
	b.engine.Register(screenConsent, b.renderConsent(textConsent))
	b.engine.Register(screenConsentMore, b.renderConsent(textConsentMore))
	b.engine.Register(screenConsentDenied, b.renderConsentDenied)
	b.engine.Register(screenNameAsk, b.renderAsk(textNameAsk, "photo_name"))
	b.engine.Register(screenEmailAsk, b.renderAsk(textEmailAsk, "photo_email"))
	b.engine.Register(screenRoleAsk, b.renderRoleAsk)
	b.engine.Register(screenPhoneAsk, b.renderPhoneAsk)

	r.HandleCallback("start:meet", b.handleMeet)
	r.HandleCallback("start:restart", b.handleRestart)
	r.HandleCallback("consent:more", b.handleConsentMore)
	r.HandleCallback("consent:yes", b.handleConsentYes)
	r.HandleCallback("consent:no", b.handleConsentNo)
	r.HandleCallback("role", b.handleRole)

	r.HandleStep(stepRegName, b.handleRegName)
	r.HandleStep(stepRegEmail, b.handleRegEmail)
	r.HandleStep(stepRegRole, b.handleRegRole)
	r.HandleStep(stepRegPhone, b.handleRegPhone)
}

func (b *Bot) renderConsent(text string) navigation.Renderer {
	return func(_ context.Context, _ int64, rc navigation.RenderContext) (navigation.Screen, error) {
		buttons := []navigation.InlineButton{button("✅ Согласен", "consent:yes")}
		if rc.ScreenID == screenConsent {
			buttons = append(buttons, button("ℹ️ Подробнее", "consent:more"))
		}
		buttons = append(buttons, button("❌ Не согласен", "consent:no"))
		return navigation.Screen{
			Text:     text,
			Content:  b.photo("photo_consent"),
			Keyboard: inline(column(buttons...)...),
		}, nil
	}
}

func (b *Bot) renderConsentDenied(context.Context, int64, navigation.RenderContext) (navigation.Screen, error) {
	return navigation.Screen{
		Text: textConsentDenied,
		Keyboard: inline(column(
			button("🔄 Начать заново", "start:restart"),
			button("👀 Меню без регистрации", "menu:guest"),
		)...),
	}, nil
}

func (b *Bot) renderAsk(text, mediaKey string) navigation.Renderer {
	return func(_ context.Context, _ int64, rc navigation.RenderContext) (navigation.Screen, error) {
		return navigation.Screen{Text: withHint(rc, text), Content: b.photo(mediaKey)}, nil
	}
}

func (b *Bot) renderRoleAsk(_ context.Context, _ int64, rc navigation.RenderContext) (navigation.Screen, error) {
	buttons := make([]navigation.InlineButton, 0, len(domain.Roles))
	for _, role := range domain.Roles {
		buttons = append(buttons, button(role.Label(), "role:"+string(role)))
	}
	return navigation.Screen{
		Text:     withHint(rc, textRoleAsk),
		Content:  b.photo("photo_role"),
		Keyboard: inline(column(buttons...)...),
	}, nil
}

// renderPhoneAsk: экран с reply-клавиатурой: медиа уходит отдельным сообщением.
func (b *Bot) renderPhoneAsk(_ context.Context, _ int64, rc navigation.RenderContext) (navigation.Screen, error) {
	return navigation.Screen{
		Text:     withHint(rc, textPhoneAsk),
		Keyboard: phoneKeyboard(btnSkip),
	}, nil
}

func (b *Bot) handleMeet(ctx context.Context, ev telegram.Event) error {
	b.states.Clear(ev.ChatID)
	if err := b.repo.EnsureUser(ctx, ev.UserID); err != nil {
		return err
	}
	return b.show(ctx, ev.ChatID, screenConsent, navigation.ClearInputMode())
}

// handleRestart отзывает согласие и возвращает к приветствию.
func (b *Bot) handleRestart(ctx context.Context, ev telegram.Event) error {
	b.states.Clear(ev.ChatID)
	if err := b.repo.EnsureUser(ctx, ev.UserID); err != nil {
		return err
	}
	if err := b.repo.SetConsent(ctx, ev.UserID, false, false); err != nil {
		return err
	}
	b.engine.Clear(ev.ChatID)
	return b.show(ctx, ev.ChatID, screenWelcome, navigation.ClearInputMode())
}

func (b *Bot) handleConsentMore(ctx context.Context, ev telegram.Event) error {
	return b.show(ctx, ev.ChatID, screenConsentMore, navigation.ReplaceTop())
}

func (b *Bot) handleConsentNo(ctx context.Context, ev telegram.Event) error {
	b.states.Clear(ev.ChatID)
	return b.show(ctx, ev.ChatID, screenConsentDenied, navigation.ReplaceTop())
}

func (b *Bot) handleConsentYes(ctx context.Context, ev telegram.Event) error {
	if err := b.repo.EnsureUser(ctx, ev.UserID); err != nil {
		return err
	}
	if err := b.repo.SetConsent(ctx, ev.UserID, true, true); err != nil {
		return err
	}
	b.states.Begin(ev.ChatID, stepRegName, nil)
	return b.show(ctx, ev.ChatID, screenNameAsk)
}

func (b *Bot) handleRegName(ctx context.Context, ev telegram.Event) error {
	if ev.Kind != telegram.KindText {
		return b.showHint(ctx, ev.ChatID, screenNameAsk, textNameNotText)
	}
	name, ok := validName(ev.Text)
	if !ok {
		return b.showHint(ctx, ev.ChatID, screenNameAsk, textNameInvalid)
	}
	if err := b.repo.UpdateProfile(ctx, ev.UserID, domain.ProfileUpdate{Name: &name}); err != nil {
		return err
	}
	b.states.SetStep(ev.ChatID, stepRegEmail)
	return b.show(ctx, ev.ChatID, screenEmailAsk)
}

func (b *Bot) handleRegEmail(ctx context.Context, ev telegram.Event) error {
	email, ok := validEmail(ev.Text)
	if ev.Kind != telegram.KindText || !ok {
		return b.showHint(ctx, ev.ChatID, screenEmailAsk, textEmailInvalid)
	}
	if err := b.repo.UpdateProfile(ctx, ev.UserID, domain.ProfileUpdate{Email: &email}); err != nil {
		return err
	}
	b.states.SetStep(ev.ChatID, stepRegRole)
	return b.show(ctx, ev.ChatID, screenRoleAsk)
}

// handleRegRole отвечает на ввод текста там, где роль выбирается кнопкой.
func (b *Bot) handleRegRole(ctx context.Context, ev telegram.Event) error {
	return b.showHint(ctx, ev.ChatID, screenRoleAsk, textUseButtons)
}

func (b *Bot) handleRole(ctx context.Context, ev telegram.Event) error {
	if b.states.Step(ev.ChatID) != stepRegRole {
		return b.handleMainMenu(ctx, ev)
	}
	role := domain.Role(argOf(ev.Data, "role"))
	if !role.Valid() {
		return b.showHint(ctx, ev.ChatID, screenRoleAsk, textUseButtons)
	}
	if err := b.repo.UpdateProfile(ctx, ev.UserID, domain.ProfileUpdate{Role: &role}); err != nil {
		return err
	}
	b.states.SetStep(ev.ChatID, stepRegPhone)
	return b.show(ctx, ev.ChatID, screenPhoneAsk)
}

func (b *Bot) handleRegPhone(ctx context.Context, ev telegram.Event) error {
	var phone string
	switch {
	case ev.Kind == telegram.KindContact:
		p, ok := normalizePhone(ev.Phone)
		if !ok {
			return b.showHint(ctx, ev.ChatID, screenPhoneAsk, textPhoneInvalid)
		}
		phone = p
	case ev.Kind == telegram.KindText && ev.Text == btnSkip:
	case ev.Kind == telegram.KindText:
		p, ok := normalizePhone(ev.Text)
		if !ok {
			return b.showHint(ctx, ev.ChatID, screenPhoneAsk, textPhoneInvalid)
		}
		phone = p
	default:
		return b.showHint(ctx, ev.ChatID, screenPhoneAsk, textPhoneNeedAction)
	}

	if phone != "" {
		if err := b.repo.UpdateProfile(ctx, ev.UserID, domain.ProfileUpdate{Phone: &phone}); err != nil {
			return err
		}
	}
	b.states.Clear(ev.ChatID)
	b.engine.Clear(ev.ChatID)
	return b.show(ctx, ev.ChatID, screenMenuRegistered, navigation.ClearInputMode())
}
