package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"form-bronze-bot/internal/navigation"
)

// botAPI представляет методы *tgbotapi.BotAPI, которые мы используем.
// Это позволяет подменять API в тестах.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	CopyMessage(config tgbotapi.CopyMessageConfig) (tgbotapi.MessageID, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Document: файл для отправки пользователю.
type Document struct {
	Name    string
	Data    []byte
	Caption string
}

// Client: адаптер Bot API: реализует исходящий порт навигации,
// оборачивает каждый вызов в политику повторов и отдаёт входящие события.
type Client struct {
	api      botAPI
	retry    *RetryPolicy
	log      *slog.Logger
	username string
}

// ClientOption определяет функциональную опцию для конфигурации клиента.
type ClientOption func(*Client)

// WithLogger устанавливает логгер для клиента.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRetryPolicy устанавливает политику повторов.
func WithRetryPolicy(p *RetryPolicy) ClientOption {
	return func(c *Client) {
		if p != nil {
			c.retry = p
		}
	}
}

// NewClient авторизуется в Bot API по токену и создает клиента.
func NewClient(token string, opts ...ClientOption) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}

	c := newClient(api, opts...)
	c.username = api.Self.UserName
	c.log.Info("Authorized on account", slog.String("username", c.username))
	return c, nil
}

func newClient(api botAPI, opts ...ClientOption) *Client {
	c := &Client{
		api: api,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry == nil {
		c.retry = NewRetryPolicy(WithRetryLogger(c.log))
	}
	return c
}

// Username возвращает имя бота.
func (c *Client) Username() string {
	return c.username
}

var _ navigation.Transport = (*Client)(nil)

// SendText отправляет текстовое сообщение.
func (c *Client) SendText(ctx context.Context, chatID int64, m navigation.OutgoingText) (int, error) {
	msg := tgbotapi.NewMessage(chatID, m.Text)
	msg.ParseMode = parseMode(m.Format)
	msg.DisableWebPagePreview = !m.ShowLinkPreview
	if m.RemoveReplyKeyboard {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	} else if markup := replyMarkup(m.Keyboard); markup != nil {
		msg.ReplyMarkup = markup
	}
	return c.send(ctx, "sendMessage", msg)
}

// SendMedia отправляет фото или видео с необязательной подписью.
func (c *Client) SendMedia(ctx context.Context, chatID int64, m navigation.OutgoingMedia) (int, error) {
	markup := replyMarkup(m.Keyboard)
	mode := ""
	if m.Caption != "" {
		mode = parseMode(m.Format)
	}

	switch media := m.Content.(type) {
	case navigation.Photo:
		msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(media.FileID))
		msg.Caption = m.Caption
		msg.ParseMode = mode
		if markup != nil {
			msg.ReplyMarkup = markup
		}
		return c.send(ctx, "sendPhoto", msg)
	case navigation.Video:
		msg := tgbotapi.NewVideo(chatID, tgbotapi.FileID(media.FileID))
		msg.Caption = m.Caption
		msg.ParseMode = mode
		if markup != nil {
			msg.ReplyMarkup = markup
		}
		return c.send(ctx, "sendVideo", msg)
	default:
		return 0, fmt.Errorf("%w: unsupported media %T", ErrTransportPermanent, m.Content)
	}
}

// DeleteMessage удаляет сообщение. Уже удалённые сообщения и запрет доступа ошибкой не считаются.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	err := c.retry.Do(ctx, "deleteMessage", func() error {
		_, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
		return err
	})
	if err != nil && isGoneOrForbidden(err) {
		c.log.DebugContext(ctx, "message already gone", slog.Int64("chat_id", chatID), slog.Int("message_id", messageID))
		return nil
	}
	return err
}

// AnswerCallback подтверждает нажатие inline-кнопки; text показывается всплывающей подсказкой.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if callbackID == "" {
		return nil
	}
	return c.retry.Do(ctx, "answerCallbackQuery", func() error {
		_, err := c.api.Request(tgbotapi.NewCallback(callbackID, text))
		return err
	})
}

// SendDocument отправляет файл из памяти.
func (c *Client) SendDocument(ctx context.Context, chatID int64, doc Document) (int, error) {
	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: doc.Name, Bytes: doc.Data})
	msg.Caption = doc.Caption
	return c.send(ctx, "sendDocument", msg)
}

// CopyMessage копирует сообщение из одного диалога в другой с клавиатурой.
func (c *Client) CopyMessage(ctx context.Context, toChatID, fromChatID int64, messageID int, kb navigation.Keyboard) (int, error) {
	cfg := tgbotapi.NewCopyMessage(toChatID, fromChatID, messageID)
	if markup := replyMarkup(kb); markup != nil {
		cfg.ReplyMarkup = markup
	}

	var id int
	err := c.retry.Do(ctx, "copyMessage", func() error {
		res, err := c.api.CopyMessage(cfg)
		if err == nil {
			id = res.MessageID
		}
		return err
	})
	return id, err
}

// Updates запускает long polling и отдаёт нормализованные события до отмены контекста.
func (c *Client) Updates(ctx context.Context, timeoutSeconds int) <-chan Event {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSeconds

	updates := c.api.GetUpdatesChan(u)
	out := make(chan Event)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				c.log.Info("Context cancelled, stopping updates...")
				c.api.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				ev, ok := EventFromUpdate(update)
				if !ok {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					c.api.StopReceivingUpdates()
					return
				}
			}
		}
	}()

	return out
}

func (c *Client) send(ctx context.Context, op string, msg tgbotapi.Chattable) (int, error) {
	var sent tgbotapi.Message
	err := c.retry.Do(ctx, op, func() error {
		m, err := c.api.Send(msg)
		if err == nil {
			sent = m
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}
