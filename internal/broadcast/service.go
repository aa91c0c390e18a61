package broadcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"form-bronze-bot/internal/domain"
	"form-bronze-bot/internal/navigation"
)

const (
	// DefaultConcurrency: число одновременных отправок.
	DefaultConcurrency = 8
	// DefaultJobTTL: сколько хранится информация о рассылке.
	DefaultJobTTL = 24 * time.Hour

	mainMenuText = "🏠 Главное меню"
	mainMenuData = "menu:main"
)

// ErrEmptyAudience возвращается, когда у рассылки нет адресатов.
var ErrEmptyAudience = errors.New("broadcast audience is empty")

// Copier копирует сообщение в другой диалог.
type Copier interface {
	CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int, kb navigation.Keyboard) (int, error)
}

// RecipientSource возвращает адресатов рассылки.
type RecipientSource interface {
	ListBroadcastRecipients(ctx context.Context, audience domain.Audience) ([]int64, error)
}

// Request: параметры рассылки: исходный пост и необязательная кнопка-ссылка.
type Request struct {
	Audience   domain.Audience
	FromChatID int64
	MessageID  int
	LinkText   string
	LinkURL    string
}

// Result: итог рассылки.
type Result struct {
	JobID  string
	Total  int
	OK     int
	Failed int
}

// Service рассылает пост подписчикам с ограничением параллельности.
type Service struct {
	copier      Copier
	recipients  RecipientSource
	jobs        *JobStore
	concurrency int
	jobTTL      time.Duration
	newID       func() string
	log         *slog.Logger

	wg sync.WaitGroup
}

// Option определяет функциональную опцию для Service.
type Option func(*Service)

// WithConcurrency задаёт число одновременных отправок.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithJobStore задаёт хранилище рассылок.
func WithJobStore(js *JobStore) Option {
	return func(s *Service) {
		if js != nil {
			s.jobs = js
		}
	}
}

// WithJobTTL задаёт время хранения информации о рассылке.
func WithJobTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.jobTTL = ttl
		}
	}
}

// WithLogger: опция для установки логгера.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService создает сервис рассылок.
func NewService(copier Copier, recipients RecipientSource, opts ...Option) *Service {
	s := &Service{
		copier:      copier,
		recipients:  recipients,
		jobs:        NewJobStore(),
		concurrency: DefaultConcurrency,
		jobTTL:      DefaultJobTTL,
		newID:       func() string { return uuid.NewString() },
		log:         slog.Default().With("component", "broadcast"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Jobs возвращает хранилище рассылок.
func (s *Service) Jobs() *JobStore {
	return s.jobs
}

// Keyboard строит клавиатуру рассылаемого поста.
func Keyboard(linkText, linkURL string) navigation.InlineKeyboard {
	var rows [][]navigation.InlineButton
	if linkText != "" && linkURL != "" {
		rows = append(rows, []navigation.InlineButton{{Text: linkText, URL: linkURL}})
	}
	rows = append(rows, []navigation.InlineButton{{Text: mainMenuText, Data: mainMenuData}})
	return navigation.InlineKeyboard{Rows: rows}
}

// Send выполняет рассылку и ждёт её завершения. Ошибки отдельных адресатов
// учитываются в Failed и не прерывают рассылку.
func (s *Service) Send(ctx context.Context, req Request) (Result, error) {
	id := s.newID()
	s.jobs.Create(id, req.Audience, s.jobTTL)
	log := s.log.With(slog.String("job_id", id), slog.String("audience", string(req.Audience)))

	res, err := s.run(ctx, id, req, log)
	if err != nil {
		_ = s.jobs.Fail(id, err.Error())
		log.ErrorContext(ctx, "broadcast failed", slog.Any("error", err))
		return res, err
	}

	_ = s.jobs.Complete(id, res.OK, res.Failed)
	log.InfoContext(ctx, "broadcast completed",
		slog.Int("total", res.Total), slog.Int("ok", res.OK), slog.Int("failed", res.Failed))
	return res, nil
}

// Launch запускает рассылку в фоне; done вызывается по её завершении.
func (s *Service) Launch(ctx context.Context, req Request, done func(Result, error)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res, err := s.Send(ctx, req)
		if done != nil {
			done(res, err)
		}
	}()
}

// Wait дожидается завершения фоновых рассылок.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) run(ctx context.Context, id string, req Request, log *slog.Logger) (Result, error) {
	res := Result{JobID: id}

	recipients, err := s.recipients.ListBroadcastRecipients(ctx, req.Audience)
	if err != nil {
		return res, fmt.Errorf("list recipients: %w", err)
	}
	res.Total = len(recipients)
	if err := s.jobs.Start(id, res.Total); err != nil {
		return res, err
	}
	if res.Total == 0 {
		return res, ErrEmptyAudience
	}

	kb := Keyboard(req.LinkText, req.LinkURL)

	var ok, failed atomic.Int64
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, chatID := range recipients {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if _, err := s.copier.CopyMessage(ctx, chatID, req.FromChatID, req.MessageID, kb); err != nil {
				failed.Add(1)
				log.DebugContext(ctx, "broadcast delivery failed", slog.Int64("chat_id", chatID), slog.Any("error", err))
			} else {
				ok.Add(1)
			}
			_ = s.jobs.Progress(id, int(ok.Load()), int(failed.Load()))
			return nil
		})
	}
	_ = g.Wait()

	res.OK = int(ok.Load())
	res.Failed = int(failed.Load())
	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("broadcast interrupted: %w", err)
	}
	return res, nil
}
