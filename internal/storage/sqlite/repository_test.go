package sqlite

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-bronze-bot/internal/domain"
)

func newTestRepo(t *testing.T) (*Repository, *time.Time) {
	t.Helper()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "bot.sqlite"),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return now }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, &now
}

func ptr[T any](v T) *T { return &v }

func registerUser(t *testing.T, r *Repository, id int64, role domain.Role, notify bool) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, r.SetConsent(ctx, id, true, notify))
	require.NoError(t, r.UpdateProfile(ctx, id, domain.ProfileUpdate{
		Name:  ptr("Пользователь"),
		Email: ptr("user@example.com"),
		Role:  ptr(role),
	}))
}

func TestRepository_Users(t *testing.T) {
	ctx := context.Background()

	t.Run("Отсутствующий пользователь", func(t *testing.T) {
		r, _ := newTestRepo(t)
		_, err := r.GetUser(ctx, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Регистрация", func(t *testing.T) {
		r, now := newTestRepo(t)
		require.NoError(t, r.EnsureUser(ctx, 1))

		u, err := r.GetUser(ctx, 1)
		require.NoError(t, err)
		assert.False(t, u.IsRegistered())
		assert.Equal(t, *now, u.CreatedAt)

		registerUser(t, r, 1, domain.RoleCollector, true)
		require.NoError(t, r.UpdateProfile(ctx, 1, domain.ProfileUpdate{Phone: ptr("+79990001122")}))

		u, err = r.GetUser(ctx, 1)
		require.NoError(t, err)
		assert.True(t, u.IsRegistered())
		assert.True(t, u.NotifyEnabled)
		require.NotNil(t, u.ConsentAt)
		assert.Equal(t, *now, *u.ConsentAt)
		assert.Equal(t, "+79990001122", u.Phone)
		assert.Equal(t, domain.RoleCollector, u.Role)
	})

	t.Run("Пустая строка очищает поле", func(t *testing.T) {
		r, _ := newTestRepo(t)
		registerUser(t, r, 1, domain.RoleAuthor, false)
		require.NoError(t, r.UpdateProfile(ctx, 1, domain.ProfileUpdate{Phone: ptr("+7000")}))
		require.NoError(t, r.UpdateProfile(ctx, 1, domain.ProfileUpdate{Phone: ptr("")}))

		u, err := r.GetUser(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "", u.Phone)
		assert.Equal(t, "Пользователь", u.Name)
	})

	t.Run("Отзыв согласия стирает профиль", func(t *testing.T) {
		r, _ := newTestRepo(t)
		registerUser(t, r, 1, domain.RoleDealer, true)
		require.NoError(t, r.SetDesignerInterest(ctx, 1, true))

		require.NoError(t, r.SetConsent(ctx, 1, false, false))

		u, err := r.GetUser(ctx, 1)
		require.NoError(t, err)
		assert.False(t, u.Consent)
		assert.False(t, u.NotifyEnabled)
		assert.Empty(t, u.Name)
		assert.Empty(t, u.Email)
		assert.Empty(t, u.Role)
		assert.False(t, u.DesignerInterest)
		assert.Nil(t, u.DesignerInterestAt)
	})

	t.Run("Переключение уведомлений", func(t *testing.T) {
		r, _ := newTestRepo(t)
		registerUser(t, r, 1, domain.RoleCollector, false)

		on, err := r.ToggleNotify(ctx, 1)
		require.NoError(t, err)
		assert.True(t, on)

		off, err := r.ToggleNotify(ctx, 1)
		require.NoError(t, err)
		assert.False(t, off)

		u, _ := r.GetUser(ctx, 1)
		assert.NotNil(t, u.NotifyConsentAt, "время первого согласия сохраняется")
	})

	t.Run("Удаление", func(t *testing.T) {
		r, _ := newTestRepo(t)
		registerUser(t, r, 1, domain.RoleCollector, true)
		require.NoError(t, r.DeleteUser(ctx, 1))
		_, err := r.GetUser(ctx, 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRepository_BroadcastRecipients(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t)

	registerUser(t, r, 1, domain.RoleCollector, true)
	registerUser(t, r, 2, domain.RoleDealer, true)
	registerUser(t, r, 3, domain.RoleCollector, false)
	require.NoError(t, r.EnsureUser(ctx, 4))

	all, err := r.ListBroadcastRecipients(ctx, domain.AudienceAll)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, all)

	collectors, err := r.ListBroadcastRecipients(ctx, domain.AudienceCollectors)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, collectors)

	authors, err := r.ListBroadcastRecipients(ctx, domain.AudienceAuthors)
	require.NoError(t, err)
	assert.Empty(t, authors)

	users, err := r.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)
}

func TestRepository_Catalog(t *testing.T) {
	ctx := context.Background()
	r, now := newTestRepo(t)

	low, err := r.AddCollection(ctx, domain.Collection{Title: "Ранние работы", SortOrder: 1})
	require.NoError(t, err)
	high, err := r.AddCollection(ctx, domain.Collection{Title: "Бронза", ShortDesc: "Литьё", CoverFileID: "cover", SortOrder: 10})
	require.NoError(t, err)
	same, err := r.AddCollection(ctx, domain.Collection{Title: "Эскизы", SortOrder: 1})
	require.NoError(t, err)

	t.Run("Порядок коллекций и постраничный вывод", func(t *testing.T) {
		page, total, err := r.ListCollections(ctx, true, 2, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, page, 2)
		assert.Equal(t, high, page[0].ID)
		assert.Equal(t, same, page[1].ID, "при равном sort_order новее идёт раньше")

		page, _, err = r.ListCollections(ctx, true, 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, low, page[0].ID)

		c, err := r.GetCollection(ctx, high)
		require.NoError(t, err)
		assert.Equal(t, "Литьё", c.ShortDesc)
		assert.Equal(t, "cover", c.CoverFileID)
		assert.True(t, c.IsActive)

		_, err = r.GetCollection(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	published := now.Add(-time.Hour)
	first, err := r.AddSculpture(ctx, domain.Sculpture{
		CollectionID: high, Title: "Торс", Artist: "Автор", Year: "2020",
		PublishedAt: &published,
	}, "p1", "p2")
	require.NoError(t, err)
	second, err := r.AddSculpture(ctx, domain.Sculpture{
		CollectionID: high, Title: "Голова", Status: domain.StatusSold, IsFeatured: true,
		PublishedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, r.AddSculpturePhoto(ctx, second, "g1", 0))

	t.Run("Работа и фотографии", func(t *testing.T) {
		s, err := r.GetSculpture(ctx, first)
		require.NoError(t, err)
		assert.Equal(t, "Торс", s.Title)
		assert.Equal(t, domain.StatusInExpo, s.Status, "статус по умолчанию")
		assert.True(t, s.IsNew())

		photos, err := r.ListSculpturePhotos(ctx, first)
		require.NoError(t, err)
		require.Len(t, photos, 2)
		assert.Equal(t, "p1", photos[0].FileID)
		assert.Equal(t, "p2", photos[1].FileID)

		_, err = r.GetSculpture(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Списки работ", func(t *testing.T) {
		byCol, total, err := r.ListSculpturesByCollection(ctx, high, 8, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, second, byCol[0].ID)

		fresh, total, err := r.ListNewSculptures(ctx, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, fresh, 1)
		assert.Equal(t, second, fresh[0].ID, "последняя публикация первой")

		featured, total, err := r.ListFeaturedSculptures(ctx, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "Голова", featured[0].Title)

		empty, total, err := r.ListSculpturesByCollection(ctx, low, 8, 0)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, empty)
	})

	t.Run("Фото без работы отклоняется", func(t *testing.T) {
		assert.Error(t, r.AddSculpturePhoto(ctx, 999, "x", 0))
	})
}

func TestRepository_VisitRequestsAndStats(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRepo(t)

	registerUser(t, r, 1, domain.RoleCollector, true)
	require.NoError(t, r.SetDesignerInterest(ctx, 1, true))
	require.NoError(t, r.EnsureUser(ctx, 2))

	_, err := r.CreateVisitRequest(ctx, domain.VisitRequest{
		TelegramID: 1, City: domain.CityYerevan, ContactMethod: domain.ContactCity,
	})
	require.NoError(t, err)
	_, err = r.CreateVisitRequest(ctx, domain.VisitRequest{
		TelegramID: 2, ContactMethod: domain.ContactPhone, ContactValue: "+7999",
	})
	require.NoError(t, err)

	visits, total, err := r.ListVisitRequests(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, visits, 2)
	assert.Equal(t, domain.ContactPhone, visits[0].ContactMethod)
	assert.Equal(t, "+7999", visits[0].ContactValue)
	assert.Equal(t, "Пользователь", visits[1].NameSnapshot, "снимок имени из профиля")
	assert.Equal(t, domain.RoleCollector, visits[1].RoleSnapshot)
	assert.Equal(t, domain.VisitRequestStatusNew, visits[1].Status)

	_, err = r.AddCollection(ctx, domain.Collection{Title: "К"})
	require.NoError(t, err)

	stats, err := r.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{
		Users:            2,
		Registered:       1,
		NotifySubscribed: 1,
		DesignerInterest: 1,
		VisitRequestsNew: 2,
		Collections:      1,
	}, stats)
}

func TestRepository_MigratesLegacyUsersTable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.sqlite")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE users (
		telegram_id INTEGER PRIMARY KEY,
		consent INTEGER NOT NULL DEFAULT 0,
		consent_at TEXT,
		notify_enabled INTEGER NOT NULL DEFAULT 0,
		notify_consent_at TEXT,
		name TEXT, email TEXT, role TEXT, phone TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users(telegram_id, consent, name, created_at, updated_at) VALUES(7, 1, 'Старый', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	r, err := Open(ctx, path, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.SetDesignerInterest(ctx, 7, true))
	u, err := r.GetUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Старый", u.Name)
	assert.True(t, u.DesignerInterest)
	assert.NoError(t, r.Ping(ctx))
}
