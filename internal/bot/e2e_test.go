package bot

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"form-bronze-bot/internal/domain"
	"form-bronze-bot/internal/telegram"
	"form-bronze-bot/internal/telegram/router"
)

// TestBot_ThroughDispatcher прогоняет регистрацию двух пользователей через очередь диалогов:
// события одного чата обрабатываются строго по порядку.
func TestBot_ThroughDispatcher(t *testing.T) {
	// База закрывается в t.Cleanup, уже после проверки.
	defer goleak.VerifyNone(t, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	h := newHarness(t)
	d := router.NewDispatcher(h.router.Handle,
		router.WithHandlerTimeout(5*time.Second),
		router.WithDispatcherLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	script := func(chatID int64, name string) []telegram.Event {
		ev := func(e telegram.Event) telegram.Event {
			e.ChatID, e.UserID = chatID, chatID
			return e
		}
		return []telegram.Event{
			ev(telegram.Event{Kind: telegram.KindCommand, Command: "start"}),
			ev(telegram.Event{Kind: telegram.KindCallback, Data: "start:meet"}),
			ev(telegram.Event{Kind: telegram.KindCallback, Data: "consent:yes"}),
			ev(telegram.Event{Kind: telegram.KindText, Text: name}),
			ev(telegram.Event{Kind: telegram.KindText, Text: "mail@example.com"}),
			ev(telegram.Event{Kind: telegram.KindCallback, Data: "role:" + string(domain.RoleAuthor)}),
			ev(telegram.Event{Kind: telegram.KindText, Text: btnSkip}),
		}
	}

	first, second := script(200, "Мария"), script(300, "Олег")
	events := make(chan telegram.Event, len(first)+len(second))
	for i := range first {
		events <- first[i]
		events <- second[i]
	}
	close(events)

	d.Run(h.ctx, events)

	for chatID, name := range map[int64]string{200: "Мария", 300: "Олег"} {
		u := h.user(chatID)
		assert.True(t, u.IsRegistered(), name)
		assert.Equal(t, name, u.Name)
		assert.Equal(t, []string{screenMenuRegistered}, h.engine.Stack(chatID))
		assert.Len(t, h.msgs.visible(chatID), 1)
	}
}
