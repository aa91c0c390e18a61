package bot

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-bronze-bot/internal/domain"
)

func TestSettings_Profile(t *testing.T) {
	t.Run("Гость видит предложение регистрации", func(t *testing.T) {
		h := newHarness(t)
		h.press(userID, "menu:settings")
		assert.Equal(t, screenSettingsGuest, h.top(userID))
		assert.Contains(t, h.screen(userID).Buttons, dataGuestRegister)

		h.press(userID, dataGuestRegister)
		assert.Equal(t, screenConsent, h.top(userID))
	})

	t.Run("Профиль зарегистрированного", func(t *testing.T) {
		h := newHarness(t)
		h.registerUser(userID)
		h.press(userID, "menu:settings")

		s := h.screen(userID)
		assert.Contains(t, s.Text, "Анна")
		assert.Contains(t, s.Text, "anna@example.com")
		assert.Contains(t, s.Text, "Рассылка: Вкл")
	})

	t.Run("Переключение рассылки на месте", func(t *testing.T) {
		h := newHarness(t)
		h.registerUser(userID)
		h.press(userID, "menu:settings")
		depth := len(h.engine.Stack(userID))

		h.press(userID, "settings:toggle_notify")
		assert.False(t, h.user(userID).NotifyEnabled)
		assert.Contains(t, h.screen(userID).Text, "Рассылка: Выкл")
		assert.Len(t, h.engine.Stack(userID), depth)
		assert.Equal(t, toastDone, h.answers.toasts[len(h.answers.toasts)-1])
		assert.Len(t, h.msgs.visible(userID), 1)
	})
}

func TestSettings_Edit(t *testing.T) {
	t.Run("Изменение имени", func(t *testing.T) {
		h := newHarness(t)
		h.registerUser(userID)
		h.press(userID, "menu:settings")
		h.press(userID, "settings:name")
		assert.Equal(t, screenEditName, h.top(userID))

		h.text(userID, "   ")
		assert.True(t, strings.HasPrefix(h.screen(userID).Text, textNameInvalid))

		h.text(userID, "Пётр")
		assert.Equal(t, []string{screenSettingsUser}, h.engine.Stack(userID))
		assert.Equal(t, "Пётр", h.user(userID).Name)
		assert.Contains(t, h.screen(userID).Text, "Пётр")
		assert.Empty(t, h.states.Step(userID))
	})

	t.Run("Изменение почты", func(t *testing.T) {
		h := newHarness(t)
		h.registerUser(userID)
		h.press(userID, "menu:settings")
		h.press(userID, "settings:email")
		h.text(userID, "not-an-email")
		assert.True(t, strings.HasPrefix(h.screen(userID).Text, textEmailInvalid))

		h.text(userID, "new@example.com")
		assert.Equal(t, "new@example.com", h.user(userID).Email)
	})

	t.Run("Удаление телефона", func(t *testing.T) {
		h := newHarness(t)
		h.registerUser(userID)
		phone := "+71234567890"
		require.NoError(t, h.repo.UpdateProfile(h.ctx, userID, domain.ProfileUpdate{Phone: &phone}))

		h.press(userID, "menu:settings")
		h.press(userID, "settings:phone")
		assert.True(t, h.screen(userID).Reply)

		h.text(userID, btnDeletePhone)
		assert.Empty(t, h.user(userID).Phone)
		assert.Equal(t, screenSettingsUser, h.top(userID))
		assert.True(t, h.msgs.removedReplyKeyboard(userID))
	})

	t.Run("Гость не редактирует профиль", func(t *testing.T) {
		h := newHarness(t)
		h.press(userID, "settings:name")
		assert.Equal(t, screenSettingsGuest, h.top(userID))
		assert.Empty(t, h.states.Step(userID))
	})
}

func TestSettings_Delete(t *testing.T) {
	t.Run("Двойное подтверждение удаляет аккаунт", func(t *testing.T) {
		h := newHarness(t)
		h.registerUser(userID)
		h.press(userID, "menu:settings")
		h.press(userID, "settings:delete")
		assert.Equal(t, screenDeleteConfirm, h.top(userID))

		h.press(userID, "settings:delete:yes1")
		assert.Equal(t, screenDeleteFinal, h.top(userID))

		h.press(userID, "settings:delete:yes2")
		_, err := h.repo.GetUser(h.ctx, userID)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.Equal(t, []string{screenWelcome}, h.engine.Stack(userID))

		visible := h.msgs.visible(userID)
		require.Len(t, visible, 2)
		assert.Equal(t, textAccountDeleted, visible[0].Text)
		assert.True(t, visible[0].Remove)
	})

	t.Run("Устаревшее подтверждение", func(t *testing.T) {
		h := newHarness(t)
		h.registerUser(userID)
		h.press(userID, "settings:delete:yes2")

		_, err := h.repo.GetUser(h.ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, []string{screenSettingsUser}, h.engine.Stack(userID))
		assert.True(t, strings.HasPrefix(h.screen(userID).Text, textDeleteStale))
	})

	t.Run("Отказ возвращает в меню", func(t *testing.T) {
		h := newHarness(t)
		h.registerUser(userID)
		h.press(userID, "settings:delete")
		h.press(userID, dataMainMenu)

		assert.Equal(t, []string{screenMenuRegistered}, h.engine.Stack(userID))
		assert.Empty(t, h.states.Step(userID))
	})
}
