// Package exporter выгружает пользователей и заявки в Excel.
package exporter

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"form-bronze-bot/internal/domain"
)

const (
	UsersSheet  = "Пользователи"
	VisitsSheet = "Заявки"

	timeLayout = "2006-01-02 15:04"
)

var (
	userHeaders = []string{
		"Telegram ID", "Имя", "Email", "Телефон", "Роль", "Город",
		"Согласие", "Уведомления", "Интерес к дизайну", "Создан",
	}
	visitHeaders = []string{
		"ID", "Telegram ID", "Имя", "Роль", "Город", "Способ связи", "Контакт", "Статус", "Создана",
	}
)

// ExcelExporter формирует xlsx-книгу в памяти.
type ExcelExporter struct {
	now func() time.Time
}

// NewExcelExporter создает новый экземпляр ExcelExporter.
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{now: time.Now}
}

// FileName возвращает имя файла выгрузки с отметкой времени.
func (e *ExcelExporter) FileName() string {
	return fmt.Sprintf("form_bronze_export_%s.xlsx", e.now().Format("2006-01-02_15-04-05"))
}

// Export возвращает книгу с листами пользователей и заявок.
func (e *ExcelExporter) Export(users []domain.User, visits []domain.VisitRequest) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", UsersSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(VisitsSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	userRows := make([][]any, 0, len(users))
	for _, u := range users {
		userRows = append(userRows, []any{
			u.TelegramID, u.Name, u.Email, u.Phone, u.Role.Label(), u.City.Label(),
			yesNo(u.Consent), yesNo(u.NotifyEnabled), yesNo(u.DesignerInterest), formatTime(u.CreatedAt),
		})
	}
	if err := writeSheet(f, UsersSheet, userHeaders, userRows, bold); err != nil {
		return nil, err
	}

	visitRows := make([][]any, 0, len(visits))
	for _, v := range visits {
		visitRows = append(visitRows, []any{
			v.ID, v.TelegramID, v.NameSnapshot, v.RoleSnapshot.Label(), v.City.Label(),
			contactLabel(v.ContactMethod), v.ContactValue, v.Status, formatTime(v.CreatedAt),
		})
	}
	if err := writeSheet(f, VisitsSheet, visitHeaders, visitRows, bold); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any, headerStyle int) error {
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func contactLabel(m domain.ContactMethod) string {
	switch m {
	case domain.ContactCity:
		return "Визит в город"
	case domain.ContactPhone:
		return "Связаться со мной"
	default:
		return string(m)
	}
}

func yesNo(b bool) string {
	if b {
		return "да"
	}
	return "нет"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}
