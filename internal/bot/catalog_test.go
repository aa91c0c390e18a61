package bot

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-bronze-bot/internal/domain"
	"form-bronze-bot/internal/navigation"
)

func (h *harness) addCollection(title string) int64 {
	h.t.Helper()
	id, err := h.repo.AddCollection(h.ctx, domain.Collection{Title: title, IsActive: true})
	require.NoError(h.t, err)
	return id
}

func (h *harness) addSculpture(s domain.Sculpture, photos ...string) int64 {
	h.t.Helper()
	id, err := h.repo.AddSculpture(h.ctx, s, photos...)
	require.NoError(h.t, err)
	return id
}

func TestCatalog_Collections(t *testing.T) {
	t.Run("Пустой каталог", func(t *testing.T) {
		h := newHarness(t)
		h.press(userID, "menu:sculptures")
		h.press(userID, dataCollections)
		assert.Equal(t, screenCollections+":0", h.top(userID))
		assert.Equal(t, textCollectionsEmpty, h.screen(userID).Text)
	})

	t.Run("Листание работ коллекции заменяет страницу", func(t *testing.T) {
		h := newHarness(t)
		colID := h.addCollection("Бронза")
		for i := range 10 {
			h.addSculpture(domain.Sculpture{CollectionID: colID, Title: fmt.Sprintf("Работа %d", i+1)})
		}

		h.press(userID, "menu:sculptures")
		h.press(userID, dataCollections)
		assert.Contains(t, h.screen(userID).Buttons, fmt.Sprintf("collection:%d", colID))

		h.press(userID, fmt.Sprintf("collection:%d", colID))
		first := fmt.Sprintf("collection:%d:0", colID)
		assert.Equal(t, first, h.top(userID))
		s := h.screen(userID)
		assert.Contains(t, s.Text, "Бронза")
		assert.Contains(t, s.Buttons, fmt.Sprintf("collection:%d:8", colID))
		depth := len(h.engine.Stack(userID))

		h.press(userID, fmt.Sprintf("collection:%d:8", colID))
		assert.Equal(t, fmt.Sprintf("collection:%d:8", colID), h.top(userID))
		assert.Len(t, h.engine.Stack(userID), depth)
		assert.Contains(t, h.screen(userID).Buttons, fmt.Sprintf("collection:%d:0", colID))

		h.press(userID, dataBack)
		assert.Equal(t, screenCollections+":0", h.top(userID))
	})

	t.Run("Несуществующая коллекция", func(t *testing.T) {
		h := newHarness(t)
		h.press(userID, "collection:999")
		assert.Equal(t, textCollectionsEmpty, h.screen(userID).Text)
	})
}

func TestCatalog_Sculpture(t *testing.T) {
	t.Run("Фото листаются по кругу без роста истории", func(t *testing.T) {
		h := newHarness(t)
		colID := h.addCollection("Бронза")
		id := h.addSculpture(domain.Sculpture{CollectionID: colID, Title: "Волна", Artist: "А. Иванов"}, "p1", "p2")

		h.press(userID, fmt.Sprintf("sculpture:%d", id))
		s := h.screen(userID)
		assert.Equal(t, "photo:p1", s.Media)
		assert.Contains(t, s.Text, "Волна")
		assert.Contains(t, s.Text, "А. Иванов")
		assert.Contains(t, s.Buttons, fmt.Sprintf("sculpture_photo_next:%d:1", id))

		h.press(userID, fmt.Sprintf("sculpture_photo_next:%d:1", id))
		assert.Equal(t, "photo:p2", h.screen(userID).Media)
		assert.Contains(t, h.screen(userID).Buttons, fmt.Sprintf("sculpture_photo_next:%d:2", id))

		h.press(userID, fmt.Sprintf("sculpture_photo_next:%d:2", id))
		assert.Equal(t, "photo:p1", h.screen(userID).Media)
		assert.Equal(t, []string{fmt.Sprintf("sculpture:%d:0", id)}, h.engine.Stack(userID))
	})

	t.Run("Гость видит кнопку регистрации", func(t *testing.T) {
		h := newHarness(t)
		id := h.addSculpture(domain.Sculpture{CollectionID: h.addCollection("Бронза"), Title: "Волна"})

		h.press(userID, fmt.Sprintf("sculpture:%d", id))
		buttons := h.screen(userID).Buttons
		assert.Contains(t, buttons, dataNeedReg)
		assert.NotContains(t, buttons, dataInviteCity)

		h.press(userID, dataNeedReg)
		assert.Equal(t, screenSettingsGuest, h.top(userID))
		assert.Equal(t, toastNeedRegister, h.answers.toasts[len(h.answers.toasts)-1])
	})

	t.Run("Зарегистрированный видит приглашения", func(t *testing.T) {
		h := newHarness(t)
		h.registerUser(userID)
		id := h.addSculpture(domain.Sculpture{CollectionID: h.addCollection("Бронза"), Title: "Волна"})

		h.press(userID, fmt.Sprintf("sculpture:%d", id))
		buttons := h.screen(userID).Buttons
		assert.Contains(t, buttons, dataInviteCity)
		assert.Contains(t, buttons, dataInviteMe)
	})

	t.Run("Удалённая работа", func(t *testing.T) {
		h := newHarness(t)
		h.press(userID, "sculpture:42")
		assert.Equal(t, textSculptureMissing, h.screen(userID).Text)
	})
}

func TestCatalog_Feeds(t *testing.T) {
	t.Run("Нет новых работ", func(t *testing.T) {
		h := newHarness(t)
		h.press(userID, dataNew)
		assert.Equal(t, textNoNew, h.screen(userID).Text)
	})

	t.Run("Новые работы по одной", func(t *testing.T) {
		h := newHarness(t)
		colID := h.addCollection("Бронза")
		older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		newer := older.Add(24 * time.Hour)
		h.addSculpture(domain.Sculpture{CollectionID: colID, Title: "Старая", PublishedAt: &older})
		h.addSculpture(domain.Sculpture{CollectionID: colID, Title: "Свежая", PublishedAt: &newer}, "fresh")
		h.addSculpture(domain.Sculpture{CollectionID: colID, Title: "Черновик"})

		h.press(userID, dataNew)
		s := h.screen(userID)
		assert.Contains(t, s.Text, "(1/2)")
		assert.Contains(t, s.Text, "Свежая")
		assert.Equal(t, "photo:fresh", s.Media)

		h.press(userID, dataNew+":1")
		assert.Contains(t, h.screen(userID).Text, "Старая")
		assert.Equal(t, []string{screenNew + ":1"}, h.engine.Stack(userID))
	})

	t.Run("Избранное", func(t *testing.T) {
		h := newHarness(t)
		colID := h.addCollection("Бронза")
		h.addSculpture(domain.Sculpture{CollectionID: colID, Title: "Обычная"})
		h.addSculpture(domain.Sculpture{CollectionID: colID, Title: "Лучшая", IsFeatured: true})

		h.press(userID, dataFeatured)
		s := h.screen(userID)
		assert.Contains(t, s.Text, "Лучшая")
		assert.Contains(t, s.Text, "(1/1)")
	})
}

func TestPager(t *testing.T) {
	data := func(row []navigation.InlineButton) []string {
		var out []string
		for _, b := range row {
			out = append(out, b.Data)
		}
		return out
	}

	tests := []struct {
		name                string
		offset, size, total int
		want                []string
	}{
		{name: "Одна страница", offset: 0, size: 8, total: 8, want: nil},
		{name: "Первая страница", offset: 0, size: 8, total: 9, want: []string{"p:8"}},
		{name: "Середина", offset: 8, size: 8, total: 20, want: []string{"p:0", "p:16"}},
		{name: "Последняя страница", offset: 16, size: 8, total: 20, want: []string{"p:8"}},
		{name: "Неровное смещение", offset: 3, size: 8, total: 10, want: []string{"p:0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := data(pager("p", tt.offset, tt.size, tt.total))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("pager() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
