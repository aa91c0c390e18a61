package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"form-bronze-bot/internal/domain"
	"form-bronze-bot/internal/navigation"
	"form-bronze-bot/internal/telegram"
	"form-bronze-bot/internal/telegram/router"
)

// pageSize: число кнопок на странице списка.
const pageSize = 8

const (
	screenSculpturesHome = "sculptures_home"
	screenCollections    = "sculptures_collections"
	screenCollection     = "collection"
	screenSculpture      = "sculpture"
	screenNew            = "new"
	screenFeatured       = "featured"
)

// Данные кнопок каталога. Кнопки со смещением листают страницы без роста истории.
const (
	dataCollections = "sculptures:collections"
	dataCollection  = "collection"
	dataSculpture   = "sculpture"
	dataPhotoNext   = "sculpture_photo_next"
	dataNew         = "sculptures:new"
	dataFeatured    = "sculptures:featured"
	dataNeedReg     = "guest:need_register"
)

func (b *Bot) registerCatalog(r *router.Router) {
	b.engine.Register(screenSculpturesHome, b.renderSculpturesHome)
	b.engine.Register(screenCollections, b.renderCollections, navigation.Arity(1))
	b.engine.Register(screenCollection, b.renderCollection, navigation.Arity(2))
	b.engine.Register(screenSculpture, b.renderSculpture, navigation.Arity(2))
	b.engine.Register(screenNew, b.renderFeed(screenNew, dataNew, textNewItem, textNoNew), navigation.Arity(1))
	b.engine.Register(screenFeatured, b.renderFeed(screenFeatured, dataFeatured, textFeaturedItem, textNoFeatured), navigation.Arity(1))

	r.HandleCallback("menu:sculptures", b.open(screenSculpturesHome))
	r.HandleCallback(dataCollections, b.handlePaged(dataCollections, screenCollections))
	r.HandleCallback(dataNew, b.handlePaged(dataNew, screenNew))
	r.HandleCallback(dataFeatured, b.handlePaged(dataFeatured, screenFeatured))
	r.HandleCallback(dataCollection, b.handleCollection)
	r.HandleCallback(dataSculpture, b.handleSculpture)
	r.HandleCallback(dataPhotoNext, b.handlePhotoNext)
	r.HandleCallback(dataNeedReg, b.open(screenSettingsGuest), router.Toast(toastNeedRegister))
}

// open возвращает обработчик, который просто показывает экран.
func (b *Bot) open(screenID string) router.Handler {
	return func(ctx context.Context, ev telegram.Event) error {
		return b.show(ctx, ev.ChatID, screenID)
	}
}

// handlePaged открывает первую страницу списка или листает его: "prefix", первая страница
// с добавлением в историю, "prefix:offset", замена текущей страницы.
func (b *Bot) handlePaged(dataPrefix, screenID string) router.Handler {
	return func(ctx context.Context, ev telegram.Event) error {
		if ev.Data == dataPrefix {
			return b.show(ctx, ev.ChatID, screenID+":0")
		}
		offset, err := strconv.Atoi(argOf(ev.Data, dataPrefix))
		if err != nil || offset < 0 {
			return fmt.Errorf("bad page in %q: %w", ev.Data, errBadCallback)
		}
		return b.show(ctx, ev.ChatID, screenID+":"+strconv.Itoa(offset), navigation.ReplaceTop())
	}
}

// handleCollection: "collection:{id}" или "collection:{id}:{offset}".
func (b *Bot) handleCollection(ctx context.Context, ev telegram.Event) error {
	parts := strings.Split(argOf(ev.Data, dataCollection), navigation.Separator)
	if _, err := strconv.ParseInt(parts[0], 10, 64); err != nil {
		return fmt.Errorf("bad collection in %q: %w", ev.Data, errBadCallback)
	}
	if len(parts) == 1 {
		return b.show(ctx, ev.ChatID, screenCollection+":"+parts[0]+":0")
	}
	return b.show(ctx, ev.ChatID, screenCollection+":"+parts[0]+":"+parts[1], navigation.ReplaceTop())
}

func (b *Bot) handleSculpture(ctx context.Context, ev telegram.Event) error {
	id := argOf(ev.Data, dataSculpture)
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return fmt.Errorf("bad sculpture in %q: %w", ev.Data, errBadCallback)
	}
	return b.show(ctx, ev.ChatID, screenSculpture+":"+id+":0")
}

// handlePhotoNext листает фото работы, не меняя историю.
func (b *Bot) handlePhotoNext(ctx context.Context, ev telegram.Event) error {
	return b.show(ctx, ev.ChatID, screenSculpture+":"+argOf(ev.Data, dataPhotoNext), navigation.WithoutPush())
}

func (b *Bot) renderSculpturesHome(context.Context, int64, navigation.RenderContext) (navigation.Screen, error) {
	return navigation.Screen{
		Text:    textSculpturesHome,
		Content: b.photo("photo_sculptures"),
		Keyboard: inline(append(column(
			button("📚 Коллекции", dataCollections),
			button("✨ Новые работы", dataNew),
			button("⭐ Избранное", dataFeatured),
		), navRow())...),
	}, nil
}

func (b *Bot) renderCollections(ctx context.Context, _ int64, rc navigation.RenderContext) (navigation.Screen, error) {
	offset, err := rc.IntArg(0)
	if err != nil {
		return navigation.Screen{}, err
	}
	items, total, err := b.repo.ListCollections(ctx, true, pageSize, offset)
	if err != nil {
		return navigation.Screen{}, err
	}
	if total == 0 {
		return navigation.Screen{Text: textCollectionsEmpty, Keyboard: inline(navRow())}, nil
	}

	buttons := make([]navigation.InlineButton, 0, len(items))
	for _, c := range items {
		buttons = append(buttons, button(c.Title, fmt.Sprintf("%s:%d", dataCollection, c.ID)))
	}
	rows := column(buttons...)
	if p := pager(dataCollections, offset, pageSize, total); p != nil {
		rows = append(rows, p)
	}
	rows = append(rows, navRow())
	return navigation.Screen{Text: textChooseCollection, Keyboard: inline(rows...)}, nil
}

func (b *Bot) renderCollection(ctx context.Context, _ int64, rc navigation.RenderContext) (navigation.Screen, error) {
	id, err := rc.IntArg(0)
	if err != nil {
		return navigation.Screen{}, err
	}
	offset, err := rc.IntArg(1)
	if err != nil {
		return navigation.Screen{}, err
	}

	col, err := b.repo.GetCollection(ctx, int64(id))
	if errors.Is(err, domain.ErrNotFound) {
		return navigation.Screen{Text: textCollectionsEmpty, Keyboard: inline(navRow())}, nil
	}
	if err != nil {
		return navigation.Screen{}, err
	}
	items, total, err := b.repo.ListSculpturesByCollection(ctx, col.ID, pageSize, offset)
	if err != nil {
		return navigation.Screen{}, err
	}

	title := col.Title
	if title == "" {
		title = textCollectionDefault
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>", html.EscapeString(title))
	if col.ShortDesc != "" {
		sb.WriteString("\n\n" + html.EscapeString(col.ShortDesc))
	}
	if total > 0 {
		sb.WriteString("\n\n" + textChooseSculpture)
	}

	buttons := make([]navigation.InlineButton, 0, len(items))
	for _, s := range items {
		buttons = append(buttons, button(s.Title, fmt.Sprintf("%s:%d", dataSculpture, s.ID)))
	}
	rows := column(buttons...)
	if p := pager(fmt.Sprintf("%s:%d", dataCollection, col.ID), offset, pageSize, total); p != nil {
		rows = append(rows, p)
	}
	rows = append(rows, navRow())
	return navigation.Screen{
		Text:     sb.String(),
		Content:  navigation.Photo{FileID: col.CoverFileID},
		Keyboard: inline(rows...),
	}, nil
}

// renderSculpture показывает карточку работы с фото номер photo по кругу.
func (b *Bot) renderSculpture(ctx context.Context, chatID int64, rc navigation.RenderContext) (navigation.Screen, error) {
	id, err := rc.IntArg(0)
	if err != nil {
		return navigation.Screen{}, err
	}
	idx, err := rc.IntArg(1)
	if err != nil {
		return navigation.Screen{}, err
	}

	s, err := b.repo.GetSculpture(ctx, int64(id))
	if errors.Is(err, domain.ErrNotFound) {
		return navigation.Screen{Text: textSculptureMissing, Keyboard: inline(navRow())}, nil
	}
	if err != nil {
		return navigation.Screen{}, err
	}
	photos, err := b.repo.ListSculpturePhotos(ctx, s.ID)
	if err != nil {
		return navigation.Screen{}, err
	}
	registered, err := b.registered(ctx, chatID)
	if err != nil {
		return navigation.Screen{}, err
	}

	var rows [][]navigation.InlineButton
	var content navigation.Content
	if len(photos) > 0 {
		idx = ((idx % len(photos)) + len(photos)) % len(photos)
		content = navigation.Photo{FileID: photos[idx].FileID}
		if len(photos) > 1 {
			rows = append(rows, []navigation.InlineButton{
				button(fmt.Sprintf("📷 Следующее фото (%d/%d)", idx+1, len(photos)),
					fmt.Sprintf("%s:%d:%d", dataPhotoNext, s.ID, idx+1)),
			})
		}
	}
	if registered {
		rows = append(rows, column(button("🏙 Увидеть вживую", dataInviteCity), button("📞 Пригласить к себе", dataInviteMe))...)
	} else {
		rows = append(rows, []navigation.InlineButton{button("📝 Оставить заявку", dataNeedReg)})
	}
	rows = append(rows, navRow())

	return navigation.Screen{
		Text:     sculptureCard(s),
		Content:  content,
		Keyboard: inline(rows...),
	}, nil
}

// renderFeed: лента по одной работе на страницу: новые или избранные.
func (b *Bot) renderFeed(screenID, dataPrefix, heading, empty string) navigation.Renderer {
	return func(ctx context.Context, _ int64, rc navigation.RenderContext) (navigation.Screen, error) {
		offset, err := rc.IntArg(0)
		if err != nil {
			return navigation.Screen{}, err
		}
		list := b.repo.ListNewSculptures
		if screenID == screenFeatured {
			list = b.repo.ListFeaturedSculptures
		}
		items, total, err := list(ctx, 1, offset)
		if err != nil {
			return navigation.Screen{}, err
		}
		if len(items) == 0 {
			return navigation.Screen{Text: empty, Keyboard: inline(navRow())}, nil
		}

		s := items[0]
		var content navigation.Content
		photos, err := b.repo.ListSculpturePhotos(ctx, s.ID)
		if err != nil {
			return navigation.Screen{}, err
		}
		if len(photos) > 0 {
			content = navigation.Photo{FileID: photos[0].FileID}
		}

		rows := [][]navigation.InlineButton{{button("🔎 Подробнее", fmt.Sprintf("%s:%d", dataSculpture, s.ID))}}
		if p := pager(dataPrefix, offset, 1, total); p != nil {
			rows = append(rows, p)
		}
		rows = append(rows, navRow())
		return navigation.Screen{
			Text:     fmt.Sprintf("%s (%d/%d)\n\n%s", heading, offset+1, total, sculptureCard(&s)),
			Content:  content,
			Keyboard: inline(rows...),
		}, nil
	}
}

// pager строит ряд "назад/вперёд" для списка; nil, если всё помещается на одну страницу.
func pager(dataPrefix string, offset, size, total int) []navigation.InlineButton {
	var row []navigation.InlineButton
	if offset > 0 {
		row = append(row, button("◀️", fmt.Sprintf("%s:%d", dataPrefix, max(offset-size, 0))))
	}
	if offset+size < total {
		row = append(row, button("▶️", fmt.Sprintf("%s:%d", dataPrefix, offset+size)))
	}
	return row
}

func sculptureCard(s *domain.Sculpture) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>", html.EscapeString(s.Title))
	line := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&sb, "\n%s: %s", name, html.EscapeString(value))
		}
	}
	line("Автор", s.Artist)
	line("Год", s.Year)
	line("Материал", s.Material)
	line("Размеры", s.Dimensions)
	if s.Status != "" {
		line("Статус", s.Status.Label())
	}
	if s.DescriptionShort != "" {
		sb.WriteString("\n\n" + html.EscapeString(s.DescriptionShort))
	}
	return sb.String()
}
