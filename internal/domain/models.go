package domain

import (
	"errors"
	"time"
)

// ErrNotFound возвращается хранилищем, когда запись не найдена.
var ErrNotFound = errors.New("not found")

// Role: кем пользователь представился при регистрации.
type Role string

const (
	RoleCollector Role = "collector"
	RoleDealer    Role = "dealer"
	RoleAuthor    Role = "author"
	RoleInterest  Role = "interest"
)

// Roles перечисляет роли в порядке показа на клавиатуре.
var Roles = []Role{RoleCollector, RoleDealer, RoleAuthor, RoleInterest}

var roleLabels = map[Role]string{
	RoleCollector: "Коллекционер",
	RoleDealer:    "Арт-дилер / Представитель",
	RoleAuthor:    "Автор",
	RoleInterest:  "Просто интересуюсь",
}

// Label возвращает подпись роли для пользователя.
func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

// Valid сообщает, что роль из известного списка.
func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// SculptureStatus: статус работы в каталоге.
type SculptureStatus string

const (
	StatusInExpo    SculptureStatus = "in_expo"
	StatusAvailable SculptureStatus = "available"
	StatusSold      SculptureStatus = "sold"
	StatusOnRequest SculptureStatus = "on_request"
)

// Statuses перечисляет статусы в порядке показа администратору.
var Statuses = []SculptureStatus{StatusInExpo, StatusAvailable, StatusSold, StatusOnRequest}

var statusLabels = map[SculptureStatus]string{
	StatusInExpo:    "В экспозиции",
	StatusAvailable: "Доступно",
	StatusSold:      "Продано",
	StatusOnRequest: "По запросу",
}

// Label возвращает подпись статуса; неизвестный статус показывается как есть.
func (s SculptureStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid сообщает, что статус из известного списка.
func (s SculptureStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// City: город визита.
type City string

const (
	CitySPB     City = "spb"
	CityMoscow  City = "moscow"
	CityYerevan City = "yerevan"
	CityDubai   City = "dubai"
)

// Cities перечисляет города в порядке показа.
var Cities = []City{CitySPB, CityMoscow, CityYerevan, CityDubai}

var cityLabels = map[City]string{
	CitySPB:     "Санкт-Петербург",
	CityMoscow:  "Москва",
	CityYerevan: "Ереван",
	CityDubai:   "Дубай",
}

// Label возвращает название города.
func (c City) Label() string {
	if l, ok := cityLabels[c]; ok {
		return l
	}
	return string(c)
}

// Valid сообщает, что город из известного списка.
func (c City) Valid() bool {
	_, ok := cityLabels[c]
	return ok
}

// User: пользователь бота.
type User struct {
	TelegramID         int64
	Consent            bool
	ConsentAt          *time.Time
	NotifyEnabled      bool
	NotifyConsentAt    *time.Time
	Name               string
	Email              string
	Role               Role
	Phone              string
	City               City
	DesignerInterest   bool
	DesignerInterestAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsRegistered сообщает, что пользователь дал согласие и заполнил имя, e-mail и роль.
func (u *User) IsRegistered() bool {
	return u != nil && u.Consent && u.Name != "" && u.Email != "" && u.Role != ""
}

// ProfileUpdate: частичное обновление профиля; nil-поля не меняются,
// указатель на пустую строку очищает поле.
type ProfileUpdate struct {
	Name  *string
	Email *string
	Role  *Role
	Phone *string
	City  *City
}

// Empty сообщает, что обновлять нечего.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil && p.Phone == nil && p.City == nil
}

// Collection: коллекция работ.
type Collection struct {
	ID          int64
	Title       string
	ShortDesc   string
	CoverFileID string
	IsActive    bool
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Sculpture: работа в каталоге.
type Sculpture struct {
	ID               int64
	CollectionID     int64
	Title            string
	Artist           string
	Year             string
	Material         string
	Dimensions       string
	DescriptionShort string
	DescriptionFull  string
	Status           SculptureStatus
	IsFeatured       bool
	PublishedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsNew сообщает, что работа опубликована в разделе новинок.
func (s *Sculpture) IsNew() bool {
	return s.PublishedAt != nil
}

// Photo: фотография работы.
type Photo struct {
	ID          int64
	SculptureID int64
	FileID      string
	SortOrder   int
}

// ContactMethod: способ связи в заявке на визит.
type ContactMethod string

const (
	// ContactCity: визит в выбранном городе.
	ContactCity ContactMethod = "city"
	// ContactPhone: пригласить к себе, связаться по телефону.
	ContactPhone ContactMethod = "phone"
)

// VisitRequestStatusNew: статус только что созданной заявки.
const VisitRequestStatusNew = "new"

// VisitRequest: заявка «Пригласите главного».
type VisitRequest struct {
	ID            int64
	TelegramID    int64
	NameSnapshot  string
	RoleSnapshot  Role
	City          City
	ContactMethod ContactMethod
	ContactValue  string
	Status        string
	CreatedAt     time.Time
}

// Stats: сводка для администратора.
type Stats struct {
	Users            int `json:"users"`
	Registered       int `json:"registered"`
	NotifySubscribed int `json:"notify_subscribed"`
	DesignerInterest int `json:"designer_interest"`
	VisitRequestsNew int `json:"visit_requests_new"`
	Collections      int `json:"collections"`
	Sculptures       int `json:"sculptures"`
}

// Audience: адресаты рассылки.
type Audience string

const (
	AudienceAll        Audience = "all"
	AudienceCollectors Audience = "collector"
	AudienceDealers    Audience = "dealer"
	AudienceAuthors    Audience = "author"
	AudienceInterest   Audience = "interest"
)

// Audiences перечисляет варианты аудитории в порядке показа.
var Audiences = []Audience{AudienceAll, AudienceCollectors, AudienceDealers, AudienceAuthors, AudienceInterest}

// Role возвращает роль, по которой фильтруется аудитория; false, без фильтра.
func (a Audience) Role() (Role, bool) {
	if a == AudienceAll || a == "" {
		return "", false
	}
	return Role(a), true
}

// Label возвращает подпись аудитории.
func (a Audience) Label() string {
	if r, ok := a.Role(); ok {
		return r.Label()
	}
	return "Все подписчики"
}

// Valid сообщает, что аудитория из известного списка.
func (a Audience) Valid() bool {
	if a == AudienceAll {
		return true
	}
	r, _ := a.Role()
	return r.Valid()
}
