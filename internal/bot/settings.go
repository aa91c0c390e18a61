package bot

import (
	"context"
	"fmt"
	"html"
	"strings"

	"form-bronze-bot/internal/domain"
	"form-bronze-bot/internal/navigation"
	"form-bronze-bot/internal/telegram"
	"form-bronze-bot/internal/telegram/router"
)

// Шаги настроек. Удаление аккаунта подтверждается дважды.
const (
	stepSettingsName    = "settings:name"
	stepSettingsEmail   = "settings:email"
	stepSettingsPhone   = "settings:phone"
	stepSettingsDelete1 = "settings:delete:1"
	stepSettingsDelete2 = "settings:delete:2"
)

const (
	screenEditName      = "edit_name"
	screenEditEmail     = "edit_email"
	screenEditPhone     = "edit_phone"
	screenDeleteConfirm = "delete_confirm"
	screenDeleteFinal   = "delete_confirm_final"
)

const dataGuestRegister = "guest:register"

func (b *Bot) registerSettings(r *router.Router) {
	b.engine.Register(screenSettingsGuest, b.renderSettingsGuest)
	b.engine.Register(screenSettingsUser, b.renderSettingsUser)
	b.engine.Register(screenEditName, b.renderEditPrompt(textEnterNewName))
	b.engine.Register(screenEditEmail, b.renderEditPrompt(textEnterNewEmail))
	b.engine.Register(screenEditPhone, b.renderEditPhone)
	b.engine.Register(screenDeleteConfirm, b.renderDeleteConfirm(textDeleteConfirm1, "settings:delete:yes1", "Да, удалить"))
	b.engine.Register(screenDeleteFinal, b.renderDeleteConfirm(textDeleteConfirm2, "settings:delete:yes2", "Удалить навсегда"))

	r.HandleCallback("menu:settings", b.handleOpenSettings)
	r.HandleCallback("menu:guest_settings", b.open(screenSettingsGuest))
	r.HandleCallback(dataGuestRegister, b.handleMeet)
	r.HandleCallback("settings:toggle_notify", b.handleToggleNotify, router.Toast(toastDone))
	r.HandleCallback("settings:name", b.beginEdit(stepSettingsName, screenEditName))
	r.HandleCallback("settings:email", b.beginEdit(stepSettingsEmail, screenEditEmail))
	r.HandleCallback("settings:phone", b.beginEdit(stepSettingsPhone, screenEditPhone))
	r.HandleCallback("settings:delete", b.handleDeleteStart)
	r.HandleCallback("settings:delete:yes1", b.handleDeleteYes1)
	r.HandleCallback("settings:delete:yes2", b.handleDeleteYes2)

	r.HandleStep(stepSettingsName, b.handleEditName)
	r.HandleStep(stepSettingsEmail, b.handleEditEmail)
	r.HandleStep(stepSettingsPhone, b.handleEditPhone)
}

func (b *Bot) renderSettingsGuest(context.Context, int64, navigation.RenderContext) (navigation.Screen, error) {
	return navigation.Screen{
		Text:    textSettingsGuest,
		Content: b.photo("photo_settings"),
		Keyboard: inline(
			[]navigation.InlineButton{button("✅ Пройти регистрацию", dataGuestRegister)},
			[]navigation.InlineButton{mainMenuButton()},
		),
	}, nil
}

func (b *Bot) renderSettingsUser(ctx context.Context, chatID int64, rc navigation.RenderContext) (navigation.Screen, error) {
	u, err := b.user(ctx, chatID)
	if err != nil {
		return navigation.Screen{}, err
	}
	if !u.IsRegistered() {
		return b.renderSettingsGuest(ctx, chatID, rc)
	}

	notify := "Выкл"
	if u.NotifyEnabled {
		notify = "Вкл"
	}
	var sb strings.Builder
	sb.WriteString(textProfileHeader + "\n\n")
	line := func(name, value string) {
		if value == "" {
			value = "—"
		}
		fmt.Fprintf(&sb, "%s: %s\n", name, html.EscapeString(value))
	}
	line("Имя", u.Name)
	line("Email", u.Email)
	line("Роль", u.Role.Label())
	line("Телефон", u.Phone)
	city := ""
	if u.City != "" {
		city = u.City.Label()
	}
	line("Город", city)
	line("Рассылка", notify)

	return navigation.Screen{
		Text:    withHint(rc, strings.TrimSuffix(sb.String(), "\n")),
		Content: b.photo("photo_settings"),
		Keyboard: inline(column(
			button("✏️ Изменить имя", "settings:name"),
			button("✉️ Изменить почту", "settings:email"),
			button("📱 Изменить телефон", "settings:phone"),
			button("🔔 Рассылка: Вкл/Выкл", "settings:toggle_notify"),
			button("🗑 Удалить аккаунт", "settings:delete"),
			mainMenuButton(),
		)...),
	}, nil
}

func (b *Bot) renderEditPrompt(text string) navigation.Renderer {
	return func(_ context.Context, _ int64, rc navigation.RenderContext) (navigation.Screen, error) {
		return navigation.Screen{
			Text:     withHint(rc, text),
			Keyboard: inline([]navigation.InlineButton{button(btnCancel, dataBack)}),
		}, nil
	}
}

func (b *Bot) renderEditPhone(_ context.Context, _ int64, rc navigation.RenderContext) (navigation.Screen, error) {
	return navigation.Screen{
		Text:     withHint(rc, textSettingsPhoneAsk),
		Keyboard: phoneKeyboard(btnDeletePhone, btnCancel),
	}, nil
}

func (b *Bot) renderDeleteConfirm(text, yesData, yesText string) navigation.Renderer {
	return func(context.Context, int64, navigation.RenderContext) (navigation.Screen, error) {
		return navigation.Screen{
			Text: text,
			Keyboard: inline([]navigation.InlineButton{
				button(yesText, yesData),
				button("Нет", dataMainMenu),
			}),
		}, nil
	}
}

func (b *Bot) handleOpenSettings(ctx context.Context, ev telegram.Event) error {
	b.states.Clear(ev.ChatID)
	ok, err := b.registered(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if ok {
		return b.show(ctx, ev.ChatID, screenSettingsUser)
	}
	return b.show(ctx, ev.ChatID, screenSettingsGuest)
}

// handleToggleNotify переключает рассылку и перерисовывает профиль на месте.
func (b *Bot) handleToggleNotify(ctx context.Context, ev telegram.Event) error {
	if _, err := b.repo.ToggleNotify(ctx, ev.UserID); err != nil {
		return err
	}
	return b.show(ctx, ev.ChatID, screenSettingsUser, navigation.WithoutPush())
}

func (b *Bot) beginEdit(step, screenID string) router.Handler {
	return b.registeredOnly(func(ctx context.Context, ev telegram.Event) error {
		b.states.Begin(ev.ChatID, step, nil)
		return b.show(ctx, ev.ChatID, screenID)
	})
}

// finishEdit возвращает к профилю, который перерисуется с новыми данными.
func (b *Bot) finishEdit(ctx context.Context, ev telegram.Event, opts ...navigation.ShowOption) error {
	b.states.Clear(ev.ChatID)
	return b.engine.Back(ctx, ev.ChatID, screenSettingsUser, opts...)
}

func (b *Bot) handleEditName(ctx context.Context, ev telegram.Event) error {
	name, ok := validName(ev.Text)
	if ev.Kind != telegram.KindText || !ok {
		return b.showHint(ctx, ev.ChatID, screenEditName, textNameInvalid)
	}
	if err := b.repo.UpdateProfile(ctx, ev.UserID, domain.ProfileUpdate{Name: &name}); err != nil {
		return err
	}
	return b.finishEdit(ctx, ev)
}

func (b *Bot) handleEditEmail(ctx context.Context, ev telegram.Event) error {
	email, ok := validEmail(ev.Text)
	if ev.Kind != telegram.KindText || !ok {
		return b.showHint(ctx, ev.ChatID, screenEditEmail, textEmailInvalid)
	}
	if err := b.repo.UpdateProfile(ctx, ev.UserID, domain.ProfileUpdate{Email: &email}); err != nil {
		return err
	}
	return b.finishEdit(ctx, ev)
}

func (b *Bot) handleEditPhone(ctx context.Context, ev telegram.Event) error {
	var raw string
	switch {
	case ev.Kind == telegram.KindContact:
		raw = ev.Phone
	case ev.Kind == telegram.KindText && ev.Text == btnCancel:
		return b.finishEdit(ctx, ev, navigation.ClearInputMode())
	case ev.Kind == telegram.KindText && ev.Text == btnDeletePhone:
		empty := ""
		if err := b.repo.UpdateProfile(ctx, ev.UserID, domain.ProfileUpdate{Phone: &empty}); err != nil {
			return err
		}
		return b.finishEdit(ctx, ev, navigation.ClearInputMode())
	case ev.Kind == telegram.KindText:
		raw = ev.Text
	}

	phone, ok := normalizePhone(raw)
	if !ok {
		return b.showHint(ctx, ev.ChatID, screenEditPhone, textSettingsPhoneBad)
	}
	if err := b.repo.UpdateProfile(ctx, ev.UserID, domain.ProfileUpdate{Phone: &phone}); err != nil {
		return err
	}
	return b.finishEdit(ctx, ev, navigation.ClearInputMode())
}

func (b *Bot) handleDeleteStart(ctx context.Context, ev telegram.Event) error {
	b.states.Begin(ev.ChatID, stepSettingsDelete1, nil)
	return b.show(ctx, ev.ChatID, screenDeleteConfirm)
}

func (b *Bot) handleDeleteYes1(ctx context.Context, ev telegram.Event) error {
	if b.states.Step(ev.ChatID) != stepSettingsDelete1 {
		return b.staleDelete(ctx, ev)
	}
	b.states.SetStep(ev.ChatID, stepSettingsDelete2)
	return b.show(ctx, ev.ChatID, screenDeleteFinal, navigation.ReplaceTop())
}

// handleDeleteYes2 удаляет пользователя и возвращает диалог к приветствию.
func (b *Bot) handleDeleteYes2(ctx context.Context, ev telegram.Event) error {
	if b.states.Step(ev.ChatID) != stepSettingsDelete2 {
		return b.staleDelete(ctx, ev)
	}
	if err := b.repo.DeleteUser(ctx, ev.UserID); err != nil {
		return err
	}
	b.states.Clear(ev.ChatID)
	b.engine.Forget(ctx, ev.ChatID)
	b.engine.Clear(ev.ChatID)

	if _, err := b.messenger.SendText(ctx, ev.ChatID, navigation.OutgoingText{
		Text:                textAccountDeleted,
		Format:              navigation.FormatPlain,
		RemoveReplyKeyboard: true,
	}); err != nil {
		return fmt.Errorf("send account deleted: %w", err)
	}
	return b.show(ctx, ev.ChatID, screenWelcome)
}

// staleDelete: подтверждение пришло без активного шага, например после перезапуска.
func (b *Bot) staleDelete(ctx context.Context, ev telegram.Event) error {
	b.states.Clear(ev.ChatID)
	b.engine.Clear(ev.ChatID)
	return b.show(ctx, ev.ChatID, screenSettingsUser, navigation.WithParams(map[string]string{paramHint: textDeleteStale}))
}
