// Package ports описывает зависимости функций бота: хранилище, транспорт,
// рассылки, выгрузку и состояние диалогов.
package ports

import (
	"context"

	"form-bronze-bot/internal/broadcast"
	"form-bronze-bot/internal/domain"
	"form-bronze-bot/internal/navigation"
	"form-bronze-bot/internal/state"
	"form-bronze-bot/internal/telegram"
)

// UserRepository хранит профили пользователей.
type UserRepository interface {
	EnsureUser(ctx context.Context, telegramID int64) error
	GetUser(ctx context.Context, telegramID int64) (*domain.User, error)
	SetConsent(ctx context.Context, telegramID int64, consent, enableNotify bool) error
	UpdateProfile(ctx context.Context, telegramID int64, p domain.ProfileUpdate) error
	ToggleNotify(ctx context.Context, telegramID int64) (bool, error)
	DeleteUser(ctx context.Context, telegramID int64) error
	SetDesignerInterest(ctx context.Context, telegramID int64, interested bool) error
	ListUsers(ctx context.Context) ([]domain.User, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// CatalogRepository хранит коллекции и скульптуры.
type CatalogRepository interface {
	AddCollection(ctx context.Context, c domain.Collection) (int64, error)
	ListCollections(ctx context.Context, activeOnly bool, limit, offset int) ([]domain.Collection, int, error)
	GetCollection(ctx context.Context, id int64) (*domain.Collection, error)
	AddSculpture(ctx context.Context, s domain.Sculpture, photoFileIDs ...string) (int64, error)
	GetSculpture(ctx context.Context, id int64) (*domain.Sculpture, error)
	ListSculpturePhotos(ctx context.Context, sculptureID int64) ([]domain.Photo, error)
	ListSculpturesByCollection(ctx context.Context, collectionID int64, limit, offset int) ([]domain.Sculpture, int, error)
	ListNewSculptures(ctx context.Context, limit, offset int) ([]domain.Sculpture, int, error)
	ListFeaturedSculptures(ctx context.Context, limit, offset int) ([]domain.Sculpture, int, error)
}

// VisitRepository хранит заявки на визит и обратный звонок.
type VisitRepository interface {
	CreateVisitRequest(ctx context.Context, v domain.VisitRequest) (int64, error)
	ListVisitRequests(ctx context.Context, limit, offset int) ([]domain.VisitRequest, int, error)
}

// Repository объединяет все хранилища бота.
type Repository interface {
	UserRepository
	CatalogRepository
	VisitRepository
}

// Messenger отправляет сообщения вне движка экранов: подсказки, уведомления, файлы.
type Messenger interface {
	navigation.Transport
	SendDocument(ctx context.Context, chatID int64, doc telegram.Document) (int, error)
}

// Broadcaster запускает рассылку в фоне.
type Broadcaster interface {
	Launch(ctx context.Context, req broadcast.Request, done func(broadcast.Result, error))
}

// Exporter определяет интерфейс для выгрузки данных.
type Exporter interface {
	Export(users []domain.User, visits []domain.VisitRequest) ([]byte, error)
	FileName() string
}

// StateStore хранит шаги многошаговых диалогов.
type StateStore interface {
	Get(chatID int64) (state.State, bool)
	Step(chatID int64) string
	SetStep(chatID int64, step string)
	Begin(chatID int64, step string, data map[string]string)
	Update(chatID int64, kv map[string]string)
	Value(chatID int64, key string) (string, error)
	AddPhoto(chatID int64, fileID string) int
	Clear(chatID int64)
}
