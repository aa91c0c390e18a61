package bot

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"form-bronze-bot/internal/broadcast"
	"form-bronze-bot/internal/domain"
	"form-bronze-bot/internal/telegram"
)

// find возвращает первое сообщение чата, содержащее подстроку.
func (f *fakeMessenger) find(chatID int64, substr string) (message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.msgs {
		if m.ChatID == chatID && strings.Contains(m.Text, substr) {
			return *m, true
		}
	}
	return message{}, false
}

func TestAdmin_Access(t *testing.T) {
	h := newHarness(t)
	for _, cmd := range []string{"admin", "stats", "export", "broadcast", "fileid"} {
		h.command(userID, cmd, "")
	}
	h.press(userID, dataCollectionStart)
	h.photo(userID, "file-1", "/fileid")

	assert.Zero(t, h.msgs.count(userID))
	assert.Empty(t, h.states.Step(userID))
	h.bc.AssertNotCalled(t, "Launch", mock.Anything)
}

func TestAdmin_Panel(t *testing.T) {
	t.Run("Панель и статистика", func(t *testing.T) {
		h := newHarness(t)
		h.registerUser(userID)
		h.command(adminID, "admin", "")
		assert.Equal(t, []string{screenAdmin}, h.engine.Stack(adminID))
		assert.Contains(t, h.screen(adminID).Buttons, dataBroadcastStart)

		h.press(adminID, "admin:stats")
		assert.Equal(t, screenAdminStats, h.top(adminID))
		assert.Contains(t, h.screen(adminID).Text, "Зарегистрировано: 1")
	})

	t.Run("Выгрузка в Excel", func(t *testing.T) {
		h := newHarness(t)
		h.registerUser(userID)
		_, err := h.repo.CreateVisitRequest(h.ctx, domain.VisitRequest{
			TelegramID: userID, ContactMethod: domain.ContactPhone, ContactValue: "+79990001122",
		})
		require.NoError(t, err)

		h.command(adminID, "export", "")
		require.Len(t, h.msgs.docs, 1)
		doc := h.msgs.docs[0]
		assert.True(t, strings.HasSuffix(doc.Name, ".xlsx"))
		assert.Equal(t, textExportCaption, doc.Caption)
		assert.True(t, len(doc.Data) > 2 && string(doc.Data[:2]) == "PK", "xlsx is a zip archive")
	})

	t.Run("Устаревшая кнопка мастера", func(t *testing.T) {
		h := newHarness(t)
		h.press(adminID, dataScIsNew+":yes")
		assert.Equal(t, []string{screenAdmin}, h.engine.Stack(adminID))
		assert.True(t, strings.HasPrefix(h.screen(adminID).Text, textWizardStale))
	})

	t.Run("Отмена мастера кнопкой", func(t *testing.T) {
		h := newHarness(t)
		h.press(adminID, dataCollectionStart)
		assert.Contains(t, h.screen(adminID).Buttons, dataWizardCancel)

		h.press(adminID, dataWizardCancel)
		assert.Empty(t, h.states.Step(adminID))
		assert.Equal(t, []string{screenAdmin}, h.engine.Stack(adminID))
	})
}

func TestAdmin_FileID(t *testing.T) {
	t.Run("Подпись к фото", func(t *testing.T) {
		h := newHarness(t)
		h.photo(adminID, "AgACphoto", "/fileid@gallery_bot")
		assert.Equal(t, "photo file_id:\n<code>AgACphoto</code>", h.msgs.last(adminID).Text)
	})

	t.Run("Фото без команды игнорируется", func(t *testing.T) {
		h := newHarness(t)
		h.photo(adminID, "AgACphoto", "просто фото")
		assert.Zero(t, h.msgs.count(adminID))
	})

	t.Run("Ответ командой", func(t *testing.T) {
		h := newHarness(t)
		h.handle(telegram.Event{Kind: telegram.KindCommand, ChatID: adminID, Command: "fileid", ReplyToID: 7,
			ReplyMedia: &telegram.Media{Type: telegram.MediaVideo, FileID: "BAACvideo"}})
		assert.Equal(t, "video file_id:\n<code>BAACvideo</code>", h.msgs.last(adminID).Text)

		h.handle(telegram.Event{Kind: telegram.KindCommand, ChatID: adminID, Command: "fileid", ReplyToID: 8})
		assert.Equal(t, textFileIDNoMedia, h.msgs.last(adminID).Text)

		h.command(adminID, "fileid", "")
		assert.Equal(t, textFileIDHowTo, h.msgs.last(adminID).Text)
	})
}

func TestAdmin_CollectionWizard(t *testing.T) {
	h := newHarness(t)
	h.command(adminID, "admin", "")
	h.press(adminID, dataCollectionStart)
	assert.Equal(t, stepColTitle, h.states.Step(adminID))

	h.text(adminID, strings.Repeat("x", maxCollectionTitleLen+1))
	assert.Equal(t, stepColTitle, h.states.Step(adminID))

	h.text(adminID, "Бронза & камень")
	h.text(adminID, "Малые формы")
	h.text(adminID, "обложка")
	assert.Equal(t, stepColCover, h.states.Step(adminID))
	h.photo(adminID, "cover-1", "")

	h.text(adminID, "три")
	assert.True(t, strings.HasPrefix(h.screen(adminID).Text, "Нужно целое число."))
	h.text(adminID, "3")

	items, total, err := h.repo.ListCollections(h.ctx, false, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "Бронза & камень", items[0].Title)
	assert.Equal(t, "Малые формы", items[0].ShortDesc)
	assert.Equal(t, "cover-1", items[0].CoverFileID)
	assert.Equal(t, 3, items[0].SortOrder)
	assert.True(t, items[0].IsActive)

	assert.Empty(t, h.states.Step(adminID))
	assert.Equal(t, []string{screenAdmin}, h.engine.Stack(adminID))
	assert.True(t, strings.HasPrefix(h.screen(adminID).Text, "✅ Коллекция «Бронза &amp; камень» добавлена"))
}

func TestAdmin_SculptureWizard(t *testing.T) {
	t.Run("Без коллекций", func(t *testing.T) {
		h := newHarness(t)
		h.press(adminID, dataSculptureStart)
		assert.Empty(t, h.states.Step(adminID))
		assert.True(t, strings.HasPrefix(h.screen(adminID).Text, textNoCollections))
	})

	t.Run("Полный мастер с анонсом", func(t *testing.T) {
		h := newHarness(t)
		colID := h.addCollection("Бронза")

		h.command(adminID, "admin", "")
		h.press(adminID, dataSculptureStart)
		assert.Equal(t, stepScCollection, h.states.Step(adminID))
		assert.Contains(t, h.screen(adminID).Buttons, fmt.Sprintf("%s:%d", dataPickCollection, colID))

		h.press(adminID, fmt.Sprintf("%s:%d", dataPickCollection, colID))
		assert.Equal(t, stepScPhotos, h.states.Step(adminID))

		h.press(adminID, dataPhotosDone)
		assert.Equal(t, stepScPhotos, h.states.Step(adminID))

		h.text(adminID, "без фото")
		assert.NotContains(t, h.screen(adminID).Buttons, dataPhotosDone)

		h.photo(adminID, "p1", "")
		h.photo(adminID, "p2", "")
		assert.Contains(t, h.screen(adminID).Buttons, dataPhotosDone)
		h.press(adminID, dataPhotosDone)
		assert.Equal(t, sculptureFields[0].step, h.states.Step(adminID))

		h.text(adminID, "   ")
		assert.Equal(t, sculptureFields[0].step, h.states.Step(adminID))
		for _, v := range []string{"Волна", "-", "Бронза", "2024", "-", "Движение воды"} {
			h.text(adminID, v)
		}
		assert.Equal(t, stepScStatus, h.states.Step(adminID))

		h.text(adminID, "в наличии")
		assert.True(t, strings.HasPrefix(h.screen(adminID).Text, textUseButtons))

		h.press(adminID, dataScStatus+":"+string(domain.StatusAvailable))
		h.press(adminID, dataScIsNew+":yes")
		h.press(adminID, dataScFeatured+":no")
		assert.Equal(t, stepScAnnounce, h.states.Step(adminID))

		h.bc.On("Launch", mock.MatchedBy(func(req broadcast.Request) bool {
			return req.Audience == domain.AudienceAll && req.FromChatID == adminID && req.MessageID > 0
		})).Return(broadcast.Result{JobID: "job-1", Total: 3, OK: 2, Failed: 1}, nil).Once()
		h.press(adminID, dataScAnnounce+":yes")
		h.bc.AssertExpectations(t)

		items, total, err := h.repo.ListSculpturesByCollection(h.ctx, colID, 10, 0)
		require.NoError(t, err)
		require.Equal(t, 1, total)
		s := items[0]
		assert.Equal(t, "Волна", s.Title)
		assert.Empty(t, s.Artist)
		assert.Equal(t, "Бронза", s.Material)
		assert.Equal(t, "2024", s.Year)
		assert.Empty(t, s.Dimensions)
		assert.Equal(t, "Движение воды", s.DescriptionShort)
		assert.Equal(t, domain.StatusAvailable, s.Status)
		assert.NotNil(t, s.PublishedAt)
		assert.False(t, s.IsFeatured)

		photos, err := h.repo.ListSculpturePhotos(h.ctx, s.ID)
		require.NoError(t, err)
		require.Len(t, photos, 2)
		assert.Equal(t, "p1", photos[0].FileID)

		preview, ok := h.msgs.find(adminID, textNewItem)
		require.True(t, ok)
		assert.Equal(t, "photo:p1", preview.Media)

		report, ok := h.msgs.find(adminID, textBroadcastDone)
		require.True(t, ok)
		assert.Contains(t, report.Text, "Успешно: 2")
		assert.Contains(t, report.Text, "Ошибок: 1")
		assert.Contains(t, report.Text, "job-1")

		assert.Empty(t, h.states.Step(adminID))
		assert.Equal(t, []string{screenAdmin}, h.engine.Stack(adminID))
		assert.True(t, strings.HasPrefix(h.screen(adminID).Text, "✅ Скульптура «Волна» добавлена"))
	})

	t.Run("Шестое фото завершает шаг", func(t *testing.T) {
		h := newHarness(t)
		colID := h.addCollection("Бронза")
		h.press(adminID, dataSculptureStart)
		h.press(adminID, fmt.Sprintf("%s:%d", dataPickCollection, colID))
		for i := range maxSculpturePhotos {
			h.photo(adminID, fmt.Sprintf("p%d", i), "")
		}
		assert.Equal(t, sculptureFields[0].step, h.states.Step(adminID))
	})

	t.Run("Без анонса рассылка не запускается", func(t *testing.T) {
		h := newHarness(t)
		colID := h.addCollection("Бронза")
		h.press(adminID, dataSculptureStart)
		h.press(adminID, fmt.Sprintf("%s:%d", dataPickCollection, colID))
		h.photo(adminID, "p1", "")
		h.press(adminID, dataPhotosDone)
		for _, v := range []string{"Тишина", "-", "-", "-", "-", "-"} {
			h.text(adminID, v)
		}
		h.press(adminID, dataScStatus+":"+string(domain.StatusInExpo))
		h.press(adminID, dataScIsNew+":no")
		h.press(adminID, dataScFeatured+":yes")
		h.press(adminID, dataScAnnounce+":no")

		h.bc.AssertNotCalled(t, "Launch", mock.Anything)
		items, _, err := h.repo.ListFeaturedSculptures(h.ctx, 10, 0)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Nil(t, items[0].PublishedAt)
	})
}

func TestAdmin_BroadcastWizard(t *testing.T) {
	start := func(h *harness) int {
		h.command(adminID, "broadcast", "")
		h.text(adminID, "коллекционерам")
		assert.True(t, strings.HasPrefix(h.screen(adminID).Text, textUseButtons))
		h.press(adminID, dataAudience+":"+string(domain.AudienceCollectors))
		assert.Equal(t, stepBcPost, h.states.Step(adminID))
		h.text(adminID, "Новости галереи")
		return h.msgID
	}

	t.Run("Рассылка со ссылкой", func(t *testing.T) {
		h := newHarness(t)
		postID := start(h)
		h.press(adminID, dataLinkChoice+":yes")
		h.text(adminID, "Сайт")
		h.text(adminID, "ftp://example.com")
		assert.Equal(t, stepBcLinkURL, h.states.Step(adminID))
		assert.True(t, strings.HasPrefix(h.screen(adminID).Text, textBroadcastBadURL))

		h.bc.On("Launch", broadcast.Request{
			Audience:   domain.AudienceCollectors,
			FromChatID: adminID,
			MessageID:  postID,
			LinkText:   "Сайт",
			LinkURL:    "https://example.com",
		}).Return(broadcast.Result{JobID: "job-7", Total: 3, OK: 3}, nil).Once()
		h.text(adminID, " https://example.com ")
		h.bc.AssertExpectations(t)

		assert.Empty(t, h.states.Step(adminID))
		assert.True(t, strings.HasPrefix(h.screen(adminID).Text, textBroadcastStarted))
		report, ok := h.msgs.find(adminID, textBroadcastDone)
		require.True(t, ok)
		assert.Contains(t, report.Text, "Успешно: 3")
	})

	t.Run("Рассылка без ссылки и с ошибкой", func(t *testing.T) {
		h := newHarness(t)
		postID := start(h)
		h.bc.On("Launch", broadcast.Request{
			Audience:   domain.AudienceCollectors,
			FromChatID: adminID,
			MessageID:  postID,
		}).Return(broadcast.Result{JobID: "job-8"}, errors.New("no recipients")).Once()
		h.press(adminID, dataLinkChoice+":no")
		h.bc.AssertExpectations(t)

		report, ok := h.msgs.find(adminID, "Рассылка не выполнена")
		require.True(t, ok)
		assert.Contains(t, report.Text, "no recipients")
		assert.Contains(t, report.Text, "job-8")
	})
}
