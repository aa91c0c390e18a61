package bot

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"form-bronze-bot/internal/broadcast"
	"form-bronze-bot/internal/domain"
	"form-bronze-bot/internal/navigation"
	"form-bronze-bot/internal/telegram"
	"form-bronze-bot/internal/telegram/router"
)

// Параметры экрана-запроса мастеров администратора.
const (
	paramText    = "text"
	paramChoices = "choices"
	paramYesNo   = "yes_no"
	paramDone    = "done"

	choicesStatus   = "status"
	choicesAudience = "audience"
)

const (
	dataWizardCancel    = "adm:cancel"
	dataCollectionStart = "adm:col:start"
	dataSculptureStart  = "adm:sc:start"
	dataPickCollection  = "adm:sc:col"
	dataPhotosDone      = "adm:sc:photos_done"
	dataScStatus        = "adm:sc:status"
	dataScIsNew         = "adm:sc:isnew"
	dataScFeatured      = "adm:sc:feat"
	dataScAnnounce      = "adm:sc:bc"
)

// Шаги мастера коллекции.
const (
	stepColTitle = "adm:col:title"
	stepColDesc  = "adm:col:desc"
	stepColCover = "adm:col:cover"
	stepColSort  = "adm:col:sort"
)

// Шаги мастера скульптуры.
const (
	stepScCollection = "adm:sc:col"
	stepScPhotos     = "adm:sc:photos"
	stepScStatus     = "adm:sc:status"
	stepScIsNew      = "adm:sc:isnew"
	stepScFeatured   = "adm:sc:feat"
	stepScAnnounce   = "adm:sc:bc"
)

const (
	screenPickCollection = "adm_collections"
	pickCollectionLimit  = 50
)

// wizardField: текстовый шаг мастера скульптуры. max > 0 делает поле обязательным.
type wizardField struct {
	step   string
	key    string
	prompt string
	max    int
}

var sculptureFields = []wizardField{
	{step: "adm:sc:title", key: "title", prompt: "Название работы (1–120 символов):", max: maxSculptureTitleLen},
	{step: "adm:sc:artist", key: "artist", prompt: "Автор (или «-»):"},
	{step: "adm:sc:material", key: "material", prompt: "Материал (или «-»):"},
	{step: "adm:sc:year", key: "year", prompt: "Год (или «-»):"},
	{step: "adm:sc:dimensions", key: "dimensions", prompt: "Размеры (или «-»):"},
	{step: "adm:sc:desc", key: "desc", prompt: "Короткое описание (или «-»):"},
}

// choicePrompts: шаги мастера скульптуры, на которые отвечают кнопками.
var choicePrompts = map[string]prompt{
	stepScStatus:   {Text: "Статус работы:", Choices: choicesStatus},
	stepScIsNew:    {Text: "Показывать в разделе «Новые работы»?", YesNo: dataScIsNew},
	stepScFeatured: {Text: "Добавить в «Избранное»?", YesNo: dataScFeatured},
	stepScAnnounce: {Text: "Разослать подписчикам анонс новой работы?", YesNo: dataScAnnounce},
}

// prompt: содержимое экрана-запроса.
type prompt struct {
	Text    string
	Hint    string
	Choices string
	YesNo   string
	Done    string
}

func (p prompt) params() map[string]string {
	return map[string]string{
		paramText:    p.Text,
		paramHint:    p.Hint,
		paramChoices: p.Choices,
		paramYesNo:   p.YesNo,
		paramDone:    p.Done,
	}
}

func (b *Bot) registerAdminContent(r *router.Router) {
	b.engine.Register(screenPickCollection, b.renderPickCollection)

	r.HandleCallback(dataCollectionStart, b.handleCollectionStart, adminOnly(b))
	r.HandleStep(stepColTitle, b.handleColTitle, adminOnly(b))
	r.HandleStep(stepColDesc, b.handleColDesc, adminOnly(b))
	r.HandleStep(stepColCover, b.handleColCover, adminOnly(b))
	r.HandleStep(stepColSort, b.handleColSort, adminOnly(b))

	r.HandleCallback(dataSculptureStart, b.handleSculptureStart, adminOnly(b))
	r.HandleCallback(dataPickCollection, b.handlePickCollection, adminOnly(b))
	r.HandleStep(stepScPhotos, b.handleScPhoto, adminOnly(b))
	r.HandleCallback(dataPhotosDone, b.handlePhotosDone, adminOnly(b))
	for i := range sculptureFields {
		r.HandleStep(sculptureFields[i].step, b.handleScField(i), adminOnly(b))
	}
	r.HandleCallback(dataScStatus, b.handleScStatus, adminOnly(b))
	r.HandleCallback(dataScIsNew, b.handleScChoice(stepScIsNew, "is_new", stepScFeatured), adminOnly(b))
	r.HandleCallback(dataScFeatured, b.handleScChoice(stepScFeatured, "featured", stepScAnnounce), adminOnly(b))
	r.HandleCallback(dataScAnnounce, b.handleScAnnounce, adminOnly(b))

	// Текст на шагах с кнопками: повторить вопрос.
	r.HandleStep(stepScCollection, b.handlePickReminder, adminOnly(b))
	for step, p := range choicePrompts {
		r.HandleStep(step, b.remind(p), adminOnly(b))
	}
}

// renderPrompt: общий экран мастеров: текст, варианты выбора и кнопка отмены.
func (b *Bot) renderPrompt(_ context.Context, _ int64, rc navigation.RenderContext) (navigation.Screen, error) {
	var rows [][]navigation.InlineButton
	switch rc.Param(paramChoices) {
	case choicesStatus:
		buttons := make([]navigation.InlineButton, 0, len(domain.Statuses))
		for _, s := range domain.Statuses {
			buttons = append(buttons, button(s.Label(), dataScStatus+":"+string(s)))
		}
		rows = append(rows, grid(2, buttons...)...)
	case choicesAudience:
		buttons := make([]navigation.InlineButton, 0, len(domain.Audiences))
		for _, a := range domain.Audiences {
			buttons = append(buttons, button(a.Label(), dataAudience+":"+string(a)))
		}
		rows = append(rows, column(buttons...)...)
	}
	if p := rc.Param(paramYesNo); p != "" {
		rows = append(rows, yesNoRow(p))
	}
	if d := rc.Param(paramDone); d != "" {
		rows = append(rows, []navigation.InlineButton{button("✅ Готово", d)})
	}
	rows = append(rows, []navigation.InlineButton{button(btnCancel, dataWizardCancel)})
	return navigation.Screen{Text: withHint(rc, rc.Param(paramText)), Keyboard: inline(rows...)}, nil
}

// ask показывает запрос мастера поверх панели, не добавляя его в историю.
func (b *Bot) ask(ctx context.Context, chatID int64, p prompt) error {
	return b.show(ctx, chatID, screenPrompt, navigation.WithoutPush(), navigation.WithParams(p.params()))
}

// inStep проверяет, что мастер ждёт именно этот шаг. Нажатие старой кнопки
// после перезапуска или отмены возвращает в панель.
func (b *Bot) inStep(ctx context.Context, chatID int64, step string) (bool, error) {
	if b.states.Step(chatID) == step {
		return true, nil
	}
	return false, b.showAdmin(ctx, chatID, textWizardStale)
}

func (b *Bot) handleCollectionStart(ctx context.Context, ev telegram.Event) error {
	b.states.Begin(ev.ChatID, stepColTitle, nil)
	return b.ask(ctx, ev.ChatID, prompt{Text: "Название коллекции (1–80 символов):"})
}

func (b *Bot) handleColTitle(ctx context.Context, ev telegram.Event) error {
	title, ok := validTitle(ev.Text, maxCollectionTitleLen)
	if ev.Kind != telegram.KindText || !ok {
		return b.ask(ctx, ev.ChatID, prompt{Hint: "Название должно быть 1–80 символов.", Text: "Название коллекции (1–80 символов):"})
	}
	b.states.Update(ev.ChatID, map[string]string{"title": title})
	b.states.SetStep(ev.ChatID, stepColDesc)
	return b.ask(ctx, ev.ChatID, prompt{Text: "Короткое описание (или «-»):"})
}

func (b *Bot) handleColDesc(ctx context.Context, ev telegram.Event) error {
	if ev.Kind != telegram.KindText {
		return b.ask(ctx, ev.ChatID, prompt{Hint: "Нужен текст.", Text: "Короткое описание (или «-»):"})
	}
	b.states.Update(ev.ChatID, map[string]string{"desc": optional(ev.Text)})
	b.states.SetStep(ev.ChatID, stepColCover)
	return b.ask(ctx, ev.ChatID, prompt{Text: "Пришлите обложку коллекции (фото) или «-»:"})
}

func (b *Bot) handleColCover(ctx context.Context, ev telegram.Event) error {
	var cover string
	switch {
	case ev.Kind == telegram.KindMedia && ev.Media != nil && ev.Media.Type == telegram.MediaPhoto:
		cover = ev.Media.FileID
	case ev.Kind == telegram.KindText && strings.TrimSpace(ev.Text) == "-":
	default:
		return b.ask(ctx, ev.ChatID, prompt{Hint: "Пришлите фото или «-».", Text: "Пришлите обложку коллекции (фото) или «-»:"})
	}
	b.states.Update(ev.ChatID, map[string]string{"cover": cover})
	b.states.SetStep(ev.ChatID, stepColSort)
	return b.ask(ctx, ev.ChatID, prompt{Text: "Порядок сортировки (целое число, например 0):"})
}

func (b *Bot) handleColSort(ctx context.Context, ev telegram.Event) error {
	sortOrder, err := strconv.Atoi(strings.TrimSpace(ev.Text))
	if ev.Kind != telegram.KindText || err != nil {
		return b.ask(ctx, ev.ChatID, prompt{Hint: "Нужно целое число.", Text: "Порядок сортировки (целое число, например 0):"})
	}
	st, ok := b.states.Get(ev.ChatID)
	if !ok {
		return b.showAdmin(ctx, ev.ChatID, textWizardStale)
	}

	id, err := b.repo.AddCollection(ctx, domain.Collection{
		Title:       st.Data["title"],
		ShortDesc:   st.Data["desc"],
		CoverFileID: st.Data["cover"],
		IsActive:    true,
		SortOrder:   sortOrder,
	})
	if err != nil {
		return err
	}
	b.log.InfoContext(ctx, "collection added", slog.Int64("collection_id", id), slog.Int64("admin_id", ev.UserID))
	return b.showAdmin(ctx, ev.ChatID, fmt.Sprintf("✅ Коллекция «%s» добавлена (id %d).", html.EscapeString(st.Data["title"]), id))
}

func (b *Bot) handleSculptureStart(ctx context.Context, ev telegram.Event) error {
	_, total, err := b.repo.ListCollections(ctx, false, 1, 0)
	if err != nil {
		return err
	}
	if total == 0 {
		return b.showAdmin(ctx, ev.ChatID, textNoCollections)
	}
	b.states.Begin(ev.ChatID, stepScCollection, nil)
	return b.show(ctx, ev.ChatID, screenPickCollection, navigation.WithoutPush())
}

func (b *Bot) renderPickCollection(ctx context.Context, _ int64, _ navigation.RenderContext) (navigation.Screen, error) {
	items, _, err := b.repo.ListCollections(ctx, false, pickCollectionLimit, 0)
	if err != nil {
		return navigation.Screen{}, err
	}
	buttons := make([]navigation.InlineButton, 0, len(items)+1)
	for _, c := range items {
		buttons = append(buttons, button(c.Title, fmt.Sprintf("%s:%d", dataPickCollection, c.ID)))
	}
	buttons = append(buttons, button(btnCancel, dataWizardCancel))
	return navigation.Screen{Text: "Выберите коллекцию для новой работы:", Keyboard: inline(column(buttons...)...)}, nil
}

func (b *Bot) handlePickCollection(ctx context.Context, ev telegram.Event) error {
	if ok, err := b.inStep(ctx, ev.ChatID, stepScCollection); !ok {
		return err
	}
	id, err := strconv.ParseInt(argOf(ev.Data, dataPickCollection), 10, 64)
	if err != nil {
		return fmt.Errorf("bad collection in %q: %w", ev.Data, errBadCallback)
	}
	if _, err := b.repo.GetCollection(ctx, id); err != nil {
		return err
	}
	b.states.Update(ev.ChatID, map[string]string{"collection_id": strconv.FormatInt(id, 10)})
	b.states.SetStep(ev.ChatID, stepScPhotos)
	return b.ask(ctx, ev.ChatID, prompt{Text: photosPrompt(0)})
}

func photosPrompt(n int) string {
	if n == 0 {
		return fmt.Sprintf("Пришлите от 1 до %d фото работы.", maxSculpturePhotos)
	}
	return fmt.Sprintf("Фото получено: %d/%d. Пришлите ещё или нажмите «Готово».", n, maxSculpturePhotos)
}

// handleScPhoto собирает фото; после шестого мастер переходит к названию сам.
func (b *Bot) handleScPhoto(ctx context.Context, ev telegram.Event) error {
	if ev.Kind != telegram.KindMedia || ev.Media == nil || ev.Media.Type != telegram.MediaPhoto {
		st, _ := b.states.Get(ev.ChatID)
		p := prompt{Hint: "Нужно фото.", Text: photosPrompt(len(st.Photos))}
		if len(st.Photos) > 0 {
			p.Done = dataPhotosDone
		}
		return b.ask(ctx, ev.ChatID, p)
	}
	n := b.states.AddPhoto(ev.ChatID, ev.Media.FileID)
	if n >= maxSculpturePhotos {
		return b.askField(ctx, ev.ChatID, 0, "")
	}
	return b.ask(ctx, ev.ChatID, prompt{Text: photosPrompt(n), Done: dataPhotosDone})
}

func (b *Bot) handlePhotosDone(ctx context.Context, ev telegram.Event) error {
	if ok, err := b.inStep(ctx, ev.ChatID, stepScPhotos); !ok {
		return err
	}
	st, _ := b.states.Get(ev.ChatID)
	if len(st.Photos) == 0 {
		return b.ask(ctx, ev.ChatID, prompt{Hint: "Нужно хотя бы одно фото.", Text: photosPrompt(0)})
	}
	return b.askField(ctx, ev.ChatID, 0, "")
}

func (b *Bot) askField(ctx context.Context, chatID int64, i int, hint string) error {
	f := sculptureFields[i]
	b.states.SetStep(chatID, f.step)
	return b.ask(ctx, chatID, prompt{Hint: hint, Text: f.prompt})
}

func (b *Bot) handleScField(i int) router.Handler {
	f := sculptureFields[i]
	return func(ctx context.Context, ev telegram.Event) error {
		if ev.Kind != telegram.KindText {
			return b.askField(ctx, ev.ChatID, i, "Нужен текст.")
		}
		value := optional(ev.Text)
		if f.max > 0 {
			v, ok := validTitle(ev.Text, f.max)
			if !ok {
				return b.askField(ctx, ev.ChatID, i, fmt.Sprintf("Поле обязательно, до %d символов.", f.max))
			}
			value = v
		}
		b.states.Update(ev.ChatID, map[string]string{f.key: value})

		if i+1 < len(sculptureFields) {
			return b.askField(ctx, ev.ChatID, i+1, "")
		}
		return b.askChoice(ctx, ev.ChatID, stepScStatus)
	}
}

// askChoice переводит мастер на шаг с кнопками и задаёт его вопрос.
func (b *Bot) askChoice(ctx context.Context, chatID int64, step string) error {
	b.states.SetStep(chatID, step)
	return b.ask(ctx, chatID, choicePrompts[step])
}

func (b *Bot) handlePickReminder(ctx context.Context, ev telegram.Event) error {
	return b.show(ctx, ev.ChatID, screenPickCollection, navigation.WithoutPush())
}

func (b *Bot) handleScStatus(ctx context.Context, ev telegram.Event) error {
	if ok, err := b.inStep(ctx, ev.ChatID, stepScStatus); !ok {
		return err
	}
	status := domain.SculptureStatus(argOf(ev.Data, dataScStatus))
	if !status.Valid() {
		return fmt.Errorf("unknown status in %q: %w", ev.Data, errBadCallback)
	}
	b.states.Update(ev.ChatID, map[string]string{"status": string(status)})
	return b.askChoice(ctx, ev.ChatID, stepScIsNew)
}

// handleScChoice сохраняет ответ "да/нет" и задаёт следующий вопрос.
func (b *Bot) handleScChoice(step, key, nextStep string) router.Handler {
	return func(ctx context.Context, ev telegram.Event) error {
		if ok, err := b.inStep(ctx, ev.ChatID, step); !ok {
			return err
		}
		b.states.Update(ev.ChatID, map[string]string{key: yesNoArg(ev.Data)})
		return b.askChoice(ctx, ev.ChatID, nextStep)
	}
}

// yesNoArg возвращает "yes" только для данных, оканчивающихся на ":yes".
func yesNoArg(data string) string {
	if strings.HasSuffix(data, navigation.Separator+"yes") {
		return "yes"
	}
	return "no"
}

// handleScAnnounce сохраняет работу и, если нужно, запускает анонс всем подписчикам.
func (b *Bot) handleScAnnounce(ctx context.Context, ev telegram.Event) error {
	if ok, err := b.inStep(ctx, ev.ChatID, stepScAnnounce); !ok {
		return err
	}
	st, ok := b.states.Get(ev.ChatID)
	if !ok {
		return b.showAdmin(ctx, ev.ChatID, textWizardStale)
	}
	collectionID, err := strconv.ParseInt(st.Data["collection_id"], 10, 64)
	if err != nil {
		return b.showAdmin(ctx, ev.ChatID, textWizardStale)
	}

	s := domain.Sculpture{
		CollectionID:     collectionID,
		Title:            st.Data["title"],
		Artist:           st.Data["artist"],
		Material:         st.Data["material"],
		Year:             st.Data["year"],
		Dimensions:       st.Data["dimensions"],
		DescriptionShort: st.Data["desc"],
		Status:           domain.SculptureStatus(st.Data["status"]),
		IsFeatured:       st.Data["featured"] == "yes",
	}
	if st.Data["is_new"] == "yes" {
		now := time.Now().UTC()
		s.PublishedAt = &now
	}
	id, err := b.repo.AddSculpture(ctx, s, st.Photos...)
	if err != nil {
		return err
	}
	b.log.InfoContext(ctx, "sculpture added",
		slog.Int64("sculpture_id", id), slog.Int("photos", len(st.Photos)), slog.Int64("admin_id", ev.UserID))

	hint := fmt.Sprintf("✅ Скульптура «%s» добавлена (id %d).", html.EscapeString(s.Title), id)
	if yesNoArg(ev.Data) == "yes" && len(st.Photos) > 0 {
		msgID, err := b.messenger.SendMedia(ctx, ev.ChatID, navigation.OutgoingMedia{
			Content: navigation.Photo{FileID: st.Photos[0]},
			Caption: textNewItem + "\n<b>" + html.EscapeString(s.Title) + "</b>",
			Format:  navigation.FormatHTML,
		})
		if err != nil {
			return fmt.Errorf("send announcement preview: %w", err)
		}
		b.launchBroadcast(ctx, ev.ChatID, broadcast.Request{
			Audience:   domain.AudienceAll,
			FromChatID: ev.ChatID,
			MessageID:  msgID,
		})
		hint += "\n" + textBroadcastStarted
	}
	return b.showAdmin(ctx, ev.ChatID, hint)
}
