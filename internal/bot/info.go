package bot

import (
	"context"
	"fmt"
	"strconv"

	"form-bronze-bot/internal/navigation"
	"form-bronze-bot/internal/telegram"
	"form-bronze-bot/internal/telegram/router"
)

const (
	screenAbout         = "about"
	screenAuthors       = "about:authors"
	screenHistory       = "about:history"
	screenProjects      = "projects"
	screenProject       = "project"
	screenGuestContacts = "guest_contacts"
	screenDesigner      = "designer"
	screenDesignerDone  = "designer_done"
)

type project struct {
	title    string
	text     string
	mediaKey string
}

var projects = []project{
	{
		title:    "Golf. Game as Art",
		text:     "<b>Golf. Game as Art</b>\n\nСкульптура и гольф: движение, пойманное в бронзе.",
		mediaKey: "photo_project_1",
	},
	{
		title:    "Балет",
		text:     "<b>Балет</b>\n\nПластика танца в работах авторов галереи.",
		mediaKey: "photo_project_2",
	},
	{
		title:    "Две грани творчества",
		text:     "<b>Две грани творчества</b>\n\nСовместный проект двух скульпторов с разным взглядом на форму.",
		mediaKey: "photo_project_3",
	},
}

func (b *Bot) registerInfo(r *router.Router) {
	b.engine.Register(screenAbout, b.renderAbout)
	b.engine.Register(screenAuthors, b.renderAboutPage(textAuthors, b.video("video_about_authors")))
	b.engine.Register(screenHistory, b.renderAboutPage(textHistory, b.photo("photo_about_history")))
	b.engine.Register(screenProjects, b.renderProjects)
	b.engine.Register(screenProject, b.renderProject, navigation.Arity(1))
	b.engine.Register(screenGuestContacts, b.renderGuestContacts)
	b.engine.Register(screenDesigner, b.renderDesigner)
	b.engine.Register(screenDesignerDone, b.renderDesignerDone)

	r.HandleCallback("menu:about", b.open(screenAbout))
	r.HandleCallback(screenAuthors, b.open(screenAuthors))
	r.HandleCallback(screenHistory, b.open(screenHistory))
	r.HandleCallback("menu:projects", b.open(screenProjects))
	r.HandleCallback("projects", b.handleProject)
	r.HandleCallback("menu:guest_contacts", b.open(screenGuestContacts))
	r.HandleCallback("menu:designer", b.open(screenDesigner))
	r.HandleCallback("designer:apply", b.handleDesignerApply)
}

func (b *Bot) renderAbout(context.Context, int64, navigation.RenderContext) (navigation.Screen, error) {
	return navigation.Screen{
		Text:    textAbout,
		Content: b.photo("photo_about"),
		Keyboard: inline(column(
			button("👥 Авторы", screenAuthors),
			button("📜 История галереи", screenHistory),
			mainMenuButton(),
		)...),
	}, nil
}

func (b *Bot) renderAboutPage(text string, content navigation.Content) navigation.Renderer {
	return func(context.Context, int64, navigation.RenderContext) (navigation.Screen, error) {
		return navigation.Screen{Text: text, Content: content, Keyboard: inline(navRow())}, nil
	}
}

func (b *Bot) renderProjects(context.Context, int64, navigation.RenderContext) (navigation.Screen, error) {
	buttons := make([]navigation.InlineButton, 0, len(projects)+1)
	for i, p := range projects {
		buttons = append(buttons, button(p.title, fmt.Sprintf("projects:%d", i+1)))
	}
	buttons = append(buttons, mainMenuButton())
	return navigation.Screen{
		Text:     textProjects,
		Content:  b.photo("photo_projects"),
		Keyboard: inline(column(buttons...)...),
	}, nil
}

// renderProject показывает проект по номеру с единицы.
func (b *Bot) renderProject(_ context.Context, _ int64, rc navigation.RenderContext) (navigation.Screen, error) {
	n, err := rc.IntArg(0)
	if err != nil {
		return navigation.Screen{}, err
	}
	if n < 1 || n > len(projects) {
		return navigation.Screen{Text: textProjects, Keyboard: inline(navRow())}, nil
	}
	p := projects[n-1]
	return navigation.Screen{Text: p.text, Content: b.photo(p.mediaKey), Keyboard: inline(navRow())}, nil
}

func (b *Bot) handleProject(ctx context.Context, ev telegram.Event) error {
	n, err := strconv.Atoi(argOf(ev.Data, "projects"))
	if err != nil {
		return fmt.Errorf("bad project in %q: %w", ev.Data, errBadCallback)
	}
	return b.show(ctx, ev.ChatID, fmt.Sprintf("%s:%d", screenProject, n))
}

func (b *Bot) renderGuestContacts(context.Context, int64, navigation.RenderContext) (navigation.Screen, error) {
	return navigation.Screen{
		Text:     textGuestContacts,
		Content:  b.photo("photo_contacts_card"),
		Keyboard: inline(append(column(button("📝 Зарегистрироваться", dataGuestRegister)), navRow())...),
	}, nil
}

func (b *Bot) renderDesigner(context.Context, int64, navigation.RenderContext) (navigation.Screen, error) {
	return navigation.Screen{
		Text:     textDesigner,
		Content:  b.photo("photo_designer"),
		Keyboard: inline(append(column(button("🤝 Сотрудничать", "designer:apply")), navRow())...),
	}, nil
}

func (b *Bot) renderDesignerDone(context.Context, int64, navigation.RenderContext) (navigation.Screen, error) {
	return navigation.Screen{Text: textDesignerThanks, Keyboard: inline([]navigation.InlineButton{mainMenuButton()})}, nil
}

// handleDesignerApply фиксирует интерес к сотрудничеству и уведомляет администраторов.
// Гостя отправляет на регистрацию.
func (b *Bot) handleDesignerApply(ctx context.Context, ev telegram.Event) error {
	if err := b.repo.EnsureUser(ctx, ev.UserID); err != nil {
		return err
	}
	u, err := b.user(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if !u.IsRegistered() {
		return b.show(ctx, ev.ChatID, screenSettingsGuest)
	}
	if err := b.repo.SetDesignerInterest(ctx, ev.UserID, true); err != nil {
		return err
	}

	b.notifyAdmins(ctx, "🎨 <b>Заявка на сотрудничество (дизайнер)</b>\n\n"+userCard(u, ev))
	return b.show(ctx, ev.ChatID, screenDesignerDone, navigation.ReplaceTop())
}
