package bot

// Тексты экранов и подсказок. Разметка HTML.
const (
	textWelcome = "<b>FORM &amp; BRONZE</b>\n\n" +
		"Галерея современной бронзовой скульптуры.\n" +
		"Давайте познакомимся: это займёт меньше минуты."

	textConsent = "<b>Согласие на обработку данных</b>\n\n" +
		"Чтобы продолжить, нам нужно ваше согласие на обработку персональных данных: " +
		"имени, e-mail и, по желанию, телефона."

	textConsentMore = "<b>Подробнее о данных</b>\n\n" +
		"Мы храним только то, что вы укажете сами: имя, e-mail, роль и телефон.\n" +
		"Данные используются для связи с вами и рассылки новостей галереи.\n" +
		"Вы можете отключить рассылку или удалить аккаунт в настройках в любой момент."

	textConsentDenied = "Без согласия мы не можем сохранить ваш профиль.\n\n" +
		"Вы можете начать заново или посмотреть меню без регистрации."

	textNameAsk  = "Как к вам обращаться? Напишите имя (до 50 символов)."
	textEmailAsk = "Укажите e-mail для связи."
	textRoleAsk  = "Кого вы представляете?"
	textPhoneAsk = "Оставьте номер телефона (необязательно).\n\n" +
		"Нажмите «" + btnSendPhone + "» или «" + btnSkip + "»."

	textNameInvalid     = "Имя должно быть непустым и до 50 символов. Попробуйте ещё раз."
	textNameNotText     = "Пожалуйста, отправьте имя текстом (до 50 символов)."
	textEmailInvalid    = "Похоже, e-mail указан с ошибкой. Проверьте и отправьте ещё раз."
	textUseButtons      = "Выберите вариант кнопкой под сообщением."
	textPhoneInvalid    = "Не похоже на номер телефона. Нажмите «" + btnSendPhone + "» или «" + btnSkip + "»."
	textPhoneNeedAction = "Нажмите «" + btnSendPhone + "» или «" + btnSkip + "»."

	textMenuRegistered = "<b>Главное меню</b>\n\nРады видеть вас в FORM &amp; BRONZE."
	textMenuGuest      = "<b>Главное меню</b>\n\nВы в гостевом режиме. " +
		"Зарегистрируйтесь в настройках, чтобы получить доступ ко всем разделам."
	textOpenMenuHint = "Чтобы продолжить, откройте главное меню."
	textCancelled    = "Действие отменено."

	textSculpturesHome    = "<b>Наши скульптуры</b>\n\nКоллекции, новые работы и избранное галереи."
	textCollectionsEmpty  = "Коллекции скоро появятся."
	textChooseCollection  = "Выберите коллекцию:"
	textChooseSculpture   = "Выберите скульптуру:"
	textCollectionDefault = "Коллекция"
	textNoNew             = "Пока нет новых работ."
	textNoFeatured        = "Пока нет избранных работ."
	textNewItem           = "Новая работа:"
	textFeaturedItem      = "Избранное:"
	textSculptureMissing  = "Работа не найдена или снята с публикации."
	toastNeedRegister     = "Нужна регистрация"

	textAbout = "<b>О галерее</b>\n\n" +
		"FORM &amp; BRONZE объединяет авторов, работающих с бронзой, и коллекционеров, которые её ценят."
	textAuthors = "<b>Авторы</b>\n\nСкульпторы галереи о своей работе."
	textHistory = "<b>История галереи</b>\n\n" +
		"Галерея выросла из мастерской литья и сегодня показывает работы в нескольких городах."

	textProjects = "<b>Спецпроекты</b>\n\nВыставки и коллаборации галереи."

	textGuestContacts = "<b>Контакты</b>\n\nЗарегистрируйтесь, чтобы оставить заявку на визит или звонок."

	textDesigner = "<b>Дизайнеры и архитекторы</b>\n\n" +
		"Если вы работаете с частными или коммерческими интерьерами, мы открыты к партнёрству.\n" +
		"FORM &amp; BRONZE предоставляет материалы, условия и поддержку для интеграции скульптур в проекты.\n\n" +
		"Нажмите «Сотрудничать», и мы свяжемся с вами."
	textDesignerThanks = "Спасибо! Заявка принята. Мы свяжемся с вами в ближайшее время."

	textInviteMain = "<b>Пригласите главного</b>\n\n" +
		"Основатель галереи лично покажет коллекцию. Выберите удобный формат."
	textInviteCity     = "Выберите город визита:"
	textInvitePhoneAsk = "Оставьте номер телефона, и мы перезвоним.\n\n" +
		"Нажмите «" + btnSendPhone + "» или отправьте номер текстом."
	textInviteDone = "<b>Заявка отправлена</b>\n\nВ ближайшее время с вами свяжутся."

	textSettingsGuest = "<b>Настройки</b>\n\nВы ещё не зарегистрированы. " +
		"Регистрация открывает заявки на визит, звонок и рассылку новостей."
	textProfileHeader    = "<b>Ваш профиль</b>"
	textEnterNewName     = "Введите новое имя (до 50 символов):"
	textEnterNewEmail    = "Введите новый e-mail:"
	textSettingsPhoneAsk = "📱 <b>Телефон</b>\n\nНажмите «" + btnSendPhone + "» или отправьте номер текстом.\nМожно удалить телефон или отменить."
	textSettingsPhoneBad = "Номер выглядит неверно.\nОтправьте номер в формате +7..., или нажмите кнопку «" + btnSendPhone + "»."
	textDeleteConfirm1   = "Удалить аккаунт? Профиль и настройки будут стёрты."
	textDeleteConfirm2   = "Это действие необратимо. Удалить навсегда?"
	textAccountDeleted   = "Аккаунт удалён."
	toastDone            = "Готово"
	textDeleteStale      = "Подтверждение устарело. Откройте настройки ещё раз."

	textAdminPanel    = "<b>Панель администратора</b>"
	textNoCollections = "Нет коллекций. Сначала добавьте коллекцию."
	textWizardStale   = "Мастер не активен. Начните заново из /admin."
	textExportCaption = "Выгрузка пользователей и заявок."

	textBroadcastAudience = "Кому отправить рассылку?"
	textBroadcastPost     = "Пришлите пост для рассылки: текст, фото или видео."
	textBroadcastAddLink  = "Добавить кнопку-ссылку под постом?"
	textBroadcastLinkText = "Введите текст кнопки (1–40 символов):"
	textBroadcastLinkURL  = "Введите ссылку (http:// или https://):"
	textBroadcastBadText  = "Текст кнопки должен быть 1–40 символов."
	textBroadcastBadURL   = "URL должен начинаться с http:// или https://"
	textBroadcastStarted  = "Рассылка запущена."
	textBroadcastDone     = "Рассылка завершена."
)
