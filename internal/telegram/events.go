package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// EventKind: тип входящего события.
type EventKind string

const (
	KindText     EventKind = "text"
	KindCommand  EventKind = "command"
	KindCallback EventKind = "callback"
	KindContact  EventKind = "contact"
	KindMedia    EventKind = "media"
)

// MediaType: тип вложения.
type MediaType string

const (
	MediaPhoto     MediaType = "photo"
	MediaVideo     MediaType = "video"
	MediaDocument  MediaType = "document"
	MediaAnimation MediaType = "animation"
)

// Media: ссылка на вложение входящего сообщения.
type Media struct {
	Type   MediaType
	FileID string
}

// Event: нормализованное входящее событие, с которым работают обработчики.
type Event struct {
	Kind      EventKind
	ChatID    int64
	UserID    int64
	Username  string
	MessageID int

	// Text: текст сообщения или подпись к медиа.
	Text    string
	Command string
	Args    string

	CallbackID string
	Data       string

	Phone string
	Media *Media
	// ReplyToID: сообщение, на которое ответил пользователь; 0, если это не ответ.
	ReplyToID int
	// ReplyMedia: вложение сообщения, на которое ответил пользователь.
	ReplyMedia *Media
}

// IsCallback сообщает, что событие, нажатие inline-кнопки.
func (e Event) IsCallback() bool {
	return e.Kind == KindCallback
}

// EventFromUpdate преобразует обновление Bot API в событие.
// Возвращает false для обновлений, которые бот не обрабатывает.
func EventFromUpdate(u tgbotapi.Update) (Event, bool) {
	if cb := u.CallbackQuery; cb != nil {
		if cb.From == nil {
			return Event{}, false
		}
		ev := Event{
			Kind:       KindCallback,
			ChatID:     cb.From.ID,
			UserID:     cb.From.ID,
			Username:   cb.From.UserName,
			CallbackID: cb.ID,
			Data:       cb.Data,
		}
		if cb.Message != nil && cb.Message.Chat != nil {
			ev.ChatID = cb.Message.Chat.ID
			ev.MessageID = cb.Message.MessageID
		}
		return ev, true
	}

	msg := u.Message
	if msg == nil || msg.Chat == nil {
		return Event{}, false
	}

	ev := Event{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
	}
	if msg.From != nil {
		ev.UserID = msg.From.ID
		ev.Username = msg.From.UserName
	} else {
		ev.UserID = msg.Chat.ID
	}
	if msg.ReplyToMessage != nil {
		ev.ReplyToID = msg.ReplyToMessage.MessageID
		ev.ReplyMedia = mediaOf(msg.ReplyToMessage)
	}

	switch {
	case msg.Contact != nil:
		ev.Kind = KindContact
		ev.Phone = msg.Contact.PhoneNumber
	case msg.IsCommand():
		ev.Kind = KindCommand
		ev.Text = msg.Text
		ev.Command = msg.Command()
		ev.Args = msg.CommandArguments()
	default:
		if m := mediaOf(msg); m != nil {
			ev.Kind = KindMedia
			ev.Media = m
			ev.Text = msg.Caption
		} else {
			ev.Kind = KindText
			ev.Text = msg.Text
		}
	}

	return ev, true
}

// mediaOf возвращает вложение сообщения; для фото берётся самый большой размер.
func mediaOf(msg *tgbotapi.Message) *Media {
	switch {
	case len(msg.Photo) > 0:
		return &Media{Type: MediaPhoto, FileID: msg.Photo[len(msg.Photo)-1].FileID}
	case msg.Video != nil:
		return &Media{Type: MediaVideo, FileID: msg.Video.FileID}
	case msg.Animation != nil:
		return &Media{Type: MediaAnimation, FileID: msg.Animation.FileID}
	case msg.Document != nil:
		return &Media{Type: MediaDocument, FileID: msg.Document.FileID}
	default:
		return nil
	}
}
