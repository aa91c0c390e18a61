package bot

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"form-bronze-bot/internal/domain"
	"form-bronze-bot/internal/navigation"
	"form-bronze-bot/internal/telegram"
	"form-bronze-bot/internal/telegram/router"
)

const screenAdminStats = "admin_stats"

// exportPageSize: размер страницы при выгрузке заявок.
const exportPageSize = 500

const (
	textFileIDHowTo = "Сделай так (любой способ):\n\n" +
		"1) Отправь фото/видео с подписью:\n<code>/fileid</code>\n\n" +
		"или\n\n" +
		"2) Отправь фото/видео, затем ответь на него командой:\n<code>/fileid</code>"
	textFileIDNoMedia = "В сообщении, на которое ты ответил, нет медиа, из которого можно взять file_id.\n\n" +
		"Отправь ОДНО фото или видео (не альбом) и ответь на него командой <code>/fileid</code>."
)

func (b *Bot) registerAdmin(r *router.Router) {
	b.engine.Register(screenAdmin, b.renderAdmin)
	b.engine.Register(screenAdminStats, b.renderAdminStats)
	b.engine.Register(screenPrompt, b.renderPrompt)

	r.HandleCommand("admin", b.handleAdmin, adminOnly(b))
	r.HandleCallback("admin:panel", b.handleAdmin, adminOnly(b))
	r.HandleCallback("admin:stats", b.open(screenAdminStats), adminOnly(b))
	r.HandleCommand("stats", b.open(screenAdminStats), adminOnly(b))
	r.HandleCommand("export", b.handleExport, adminOnly(b))
	r.HandleCallback("admin:export", b.handleExport, adminOnly(b))
	r.HandleCommand("fileid", b.handleFileID, adminOnly(b))
	r.HandleCallback(dataWizardCancel, b.handleAdmin, adminOnly(b))
	r.HandleMedia(router.AdminOnly(b.IsAdmin)(b.handleMediaCaption))
}

func (b *Bot) renderAdmin(_ context.Context, _ int64, rc navigation.RenderContext) (navigation.Screen, error) {
	return navigation.Screen{
		Text: withHint(rc, textAdminPanel),
		Keyboard: inline(column(
			button("➕ Добавить коллекцию", dataCollectionStart),
			button("➕ Добавить скульптуру", dataSculptureStart),
			button("📣 Рассылка", dataBroadcastStart),
			button("📊 Статистика", "admin:stats"),
			button("📥 Выгрузка в Excel", "admin:export"),
			mainMenuButton(),
		)...),
	}, nil
}

func (b *Bot) renderAdminStats(ctx context.Context, _ int64, _ navigation.RenderContext) (navigation.Screen, error) {
	st, err := b.repo.Stats(ctx)
	if err != nil {
		return navigation.Screen{}, err
	}
	text := fmt.Sprintf("<b>Статистика</b>\n\n"+
		"Пользователей: %d\n"+
		"Зарегистрировано: %d\n"+
		"Подписаны на рассылку: %d\n"+
		"Интерес дизайнеров: %d\n"+
		"Новых заявок: %d\n"+
		"Коллекций: %d\n"+
		"Скульптур: %d",
		st.Users, st.Registered, st.NotifySubscribed, st.DesignerInterest,
		st.VisitRequestsNew, st.Collections, st.Sculptures)
	return navigation.Screen{Text: text, Keyboard: inline(navRow())}, nil
}

// handleAdmin открывает панель с чистой историей и прерывает активный мастер.
func (b *Bot) handleAdmin(ctx context.Context, ev telegram.Event) error {
	b.states.Clear(ev.ChatID)
	b.engine.Clear(ev.ChatID)
	return b.show(ctx, ev.ChatID, screenAdmin, navigation.ClearInputMode())
}

// showAdmin возвращает в панель с сообщением о результате.
func (b *Bot) showAdmin(ctx context.Context, chatID int64, hint string) error {
	b.states.Clear(chatID)
	b.engine.Clear(chatID)
	return b.show(ctx, chatID, screenAdmin, navigation.WithParams(map[string]string{paramHint: hint}))
}

// handleExport выгружает пользователей и все заявки в xlsx и отправляет файлом.
func (b *Bot) handleExport(ctx context.Context, ev telegram.Event) error {
	users, err := b.repo.ListUsers(ctx)
	if err != nil {
		return err
	}
	var visits []domain.VisitRequest
	for offset := 0; ; offset += exportPageSize {
		page, total, err := b.repo.ListVisitRequests(ctx, exportPageSize, offset)
		if err != nil {
			return err
		}
		visits = append(visits, page...)
		if len(page) == 0 || offset+len(page) >= total {
			break
		}
	}

	data, err := b.exporter.Export(users, visits)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if _, err := b.messenger.SendDocument(ctx, ev.ChatID, telegram.Document{
		Name:    b.exporter.FileName(),
		Data:    data,
		Caption: textExportCaption,
	}); err != nil {
		return fmt.Errorf("send export: %w", err)
	}
	b.log.InfoContext(ctx, "export sent",
		slog.Int64("chat_id", ev.ChatID), slog.Int("users", len(users)), slog.Int("visits", len(visits)))
	return nil
}

func (b *Bot) handleFileID(ctx context.Context, ev telegram.Event) error {
	switch {
	case ev.ReplyMedia != nil:
		return b.reply(ctx, ev.ChatID, fileIDText(ev.ReplyMedia))
	case ev.ReplyToID != 0:
		return b.reply(ctx, ev.ChatID, textFileIDNoMedia)
	default:
		return b.reply(ctx, ev.ChatID, textFileIDHowTo)
	}
}

// handleMediaCaption отвечает file id на медиа с подписью /fileid. Остальные медиа вне
// сценариев игнорируются.
func (b *Bot) handleMediaCaption(ctx context.Context, ev telegram.Event) error {
	if ev.Media == nil || !isFileIDCommand(ev.Text) {
		return nil
	}
	return b.reply(ctx, ev.ChatID, fileIDText(ev.Media))
}

// isFileIDCommand проверяет первый токен подписи: "/fileid" или "/fileid@bot".
func isFileIDCommand(caption string) bool {
	fields := strings.Fields(caption)
	if len(fields) == 0 {
		return false
	}
	return fields[0] == "/fileid" || strings.HasPrefix(fields[0], "/fileid@")
}

func fileIDText(m *telegram.Media) string {
	return fmt.Sprintf("%s file_id:\n<code>%s</code>", m.Type, html.EscapeString(m.FileID))
}
