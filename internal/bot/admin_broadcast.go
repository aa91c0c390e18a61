package bot

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"

	"form-bronze-bot/internal/broadcast"
	"form-bronze-bot/internal/domain"
	"form-bronze-bot/internal/navigation"
	"form-bronze-bot/internal/telegram"
	"form-bronze-bot/internal/telegram/router"
)

const (
	dataBroadcastStart = "admin:broadcast"
	dataAudience       = "bc:aud"
	dataLinkChoice     = "bc:link"
)

// Шаги мастера рассылки.
const (
	stepBcAudience = "bc:audience"
	stepBcPost     = "bc:post"
	stepBcLink     = "bc:link"
	stepBcLinkText = "bc:link_text"
	stepBcLinkURL  = "bc:link_url"
)

func (b *Bot) registerBroadcast(r *router.Router) {
	r.HandleCommand("broadcast", b.handleBroadcastStart, adminOnly(b))
	r.HandleCallback(dataBroadcastStart, b.handleBroadcastStart, adminOnly(b))
	r.HandleCallback(dataAudience, b.handleAudience, adminOnly(b))
	r.HandleCallback(dataLinkChoice, b.handleLinkChoice, adminOnly(b))

	r.HandleStep(stepBcAudience, b.remind(prompt{Text: textBroadcastAudience, Choices: choicesAudience}), adminOnly(b))
	r.HandleStep(stepBcPost, b.handlePost, adminOnly(b))
	r.HandleStep(stepBcLink, b.remind(prompt{Text: textBroadcastAddLink, YesNo: dataLinkChoice}), adminOnly(b))
	r.HandleStep(stepBcLinkText, b.handleLinkText, adminOnly(b))
	r.HandleStep(stepBcLinkURL, b.handleLinkURL, adminOnly(b))
}

// remind повторяет вопрос шага, на который отвечают кнопкой.
func (b *Bot) remind(p prompt) router.Handler {
	p.Hint = textUseButtons
	return func(ctx context.Context, ev telegram.Event) error {
		return b.ask(ctx, ev.ChatID, p)
	}
}

func (b *Bot) handleBroadcastStart(ctx context.Context, ev telegram.Event) error {
	b.states.Begin(ev.ChatID, stepBcAudience, nil)
	return b.ask(ctx, ev.ChatID, prompt{Text: textBroadcastAudience, Choices: choicesAudience})
}

func (b *Bot) handleAudience(ctx context.Context, ev telegram.Event) error {
	if ok, err := b.inStep(ctx, ev.ChatID, stepBcAudience); !ok {
		return err
	}
	audience := domain.Audience(argOf(ev.Data, dataAudience))
	if !audience.Valid() {
		return fmt.Errorf("unknown audience in %q: %w", ev.Data, errBadCallback)
	}
	b.states.Update(ev.ChatID, map[string]string{"audience": string(audience)})
	b.states.SetStep(ev.ChatID, stepBcPost)
	return b.ask(ctx, ev.ChatID, prompt{Text: "Аудитория: " + audience.Label() + "\n\n" + textBroadcastPost})
}

// handlePost запоминает исходное сообщение: рассылка копирует его как есть.
func (b *Bot) handlePost(ctx context.Context, ev telegram.Event) error {
	if ev.MessageID == 0 {
		return b.ask(ctx, ev.ChatID, prompt{Hint: textBroadcastPost, Text: textBroadcastPost})
	}
	b.states.Update(ev.ChatID, map[string]string{
		"from_chat": strconv.FormatInt(ev.ChatID, 10),
		"msg_id":    strconv.Itoa(ev.MessageID),
	})
	b.states.SetStep(ev.ChatID, stepBcLink)
	return b.ask(ctx, ev.ChatID, prompt{Text: textBroadcastAddLink, YesNo: dataLinkChoice})
}

func (b *Bot) handleLinkChoice(ctx context.Context, ev telegram.Event) error {
	if ok, err := b.inStep(ctx, ev.ChatID, stepBcLink); !ok {
		return err
	}
	if yesNoArg(ev.Data) == "yes" {
		b.states.SetStep(ev.ChatID, stepBcLinkText)
		return b.ask(ctx, ev.ChatID, prompt{Text: textBroadcastLinkText})
	}
	return b.startBroadcast(ctx, ev.ChatID)
}

func (b *Bot) handleLinkText(ctx context.Context, ev telegram.Event) error {
	text, ok := validTitle(ev.Text, maxLinkTextLen)
	if ev.Kind != telegram.KindText || !ok {
		return b.ask(ctx, ev.ChatID, prompt{Hint: textBroadcastBadText, Text: textBroadcastLinkText})
	}
	b.states.Update(ev.ChatID, map[string]string{"link_text": text})
	b.states.SetStep(ev.ChatID, stepBcLinkURL)
	return b.ask(ctx, ev.ChatID, prompt{Text: textBroadcastLinkURL})
}

func (b *Bot) handleLinkURL(ctx context.Context, ev telegram.Event) error {
	url, ok := validURL(ev.Text)
	if ev.Kind != telegram.KindText || !ok {
		return b.ask(ctx, ev.ChatID, prompt{Hint: textBroadcastBadURL, Text: textBroadcastLinkURL})
	}
	b.states.Update(ev.ChatID, map[string]string{"link_url": url})
	return b.startBroadcast(ctx, ev.ChatID)
}

// startBroadcast собирает запрос из состояния мастера и запускает рассылку.
func (b *Bot) startBroadcast(ctx context.Context, chatID int64) error {
	st, ok := b.states.Get(chatID)
	if !ok {
		return b.showAdmin(ctx, chatID, textWizardStale)
	}
	fromChat, err1 := strconv.ParseInt(st.Data["from_chat"], 10, 64)
	msgID, err2 := strconv.Atoi(st.Data["msg_id"])
	if err1 != nil || err2 != nil {
		return b.showAdmin(ctx, chatID, textWizardStale)
	}

	b.launchBroadcast(ctx, chatID, broadcast.Request{
		Audience:   domain.Audience(st.Data["audience"]),
		FromChatID: fromChat,
		MessageID:  msgID,
		LinkText:   st.Data["link_text"],
		LinkURL:    st.Data["link_url"],
	})
	return b.showAdmin(ctx, chatID, textBroadcastStarted)
}

// launchBroadcast запускает рассылку в фоне. Итог приходит администратору отдельным
// сообщением: рассылка переживает таймаут обработчика.
func (b *Bot) launchBroadcast(ctx context.Context, adminChatID int64, req broadcast.Request) {
	log := b.log.With(slog.Int64("chat_id", adminChatID), slog.String("audience", string(req.Audience)))
	b.broadcaster.Launch(context.WithoutCancel(ctx), req, func(res broadcast.Result, err error) {
		text := fmt.Sprintf("%s\nУспешно: %d\nОшибок: %d\nID: <code>%s</code>",
			textBroadcastDone, res.OK, res.Failed, html.EscapeString(res.JobID))
		if err != nil {
			text = fmt.Sprintf("Рассылка не выполнена: %s\nID: <code>%s</code>",
				html.EscapeString(err.Error()), html.EscapeString(res.JobID))
		}
		if _, sendErr := b.messenger.SendText(context.Background(), adminChatID, navigation.OutgoingText{
			Text:   text,
			Format: navigation.FormatHTML,
		}); sendErr != nil {
			log.Warn("broadcast report not delivered", slog.Any("error", sendErr))
		}
	})
}
