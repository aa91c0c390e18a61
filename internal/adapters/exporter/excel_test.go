package exporter

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"form-bronze-bot/internal/domain"
)

func TestExcelExporter_Export(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	users := []domain.User{
		{
			TelegramID: 1001, Name: "Анна", Email: "anna@example.com", Phone: "+79991234567",
			Role: domain.RoleCollector, City: domain.CityMoscow, Consent: true, NotifyEnabled: true,
			CreatedAt: created,
		},
		{TelegramID: 1002, CreatedAt: created},
	}
	visits := []domain.VisitRequest{
		{
			ID: 7, TelegramID: 1001, NameSnapshot: "Анна", RoleSnapshot: domain.RoleCollector,
			City: domain.CityDubai, ContactMethod: domain.ContactCity, Status: domain.VisitRequestStatusNew,
			CreatedAt: created,
		},
	}

	data, err := NewExcelExporter().Export(users, visits)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{UsersSheet, VisitsSheet}, f.GetSheetList())

	t.Run("Лист пользователей", func(t *testing.T) {
		rows, err := f.GetRows(UsersSheet)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, userHeaders, rows[0])
		assert.Equal(t, []string{
			"1001", "Анна", "anna@example.com", "+79991234567", "Коллекционер", "Москва",
			"да", "да", "нет", "2025-03-01 12:30",
		}, rows[1])
		assert.Equal(t, "1002", rows[2][0])
		assert.Equal(t, "нет", rows[2][6])
	})

	t.Run("Лист заявок", func(t *testing.T) {
		rows, err := f.GetRows(VisitsSheet)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, visitHeaders, rows[0])
		assert.Equal(t, "Дубай", rows[1][4])
		assert.Equal(t, "Визит в город", rows[1][5])
		assert.Equal(t, "new", rows[1][7])
	})

	t.Run("Жирный заголовок", func(t *testing.T) {
		idx, err := f.GetCellStyle(UsersSheet, "B1")
		require.NoError(t, err)
		style, err := f.GetStyle(idx)
		require.NoError(t, err)
		require.NotNil(t, style.Font)
		assert.True(t, style.Font.Bold)

		idx, err = f.GetCellStyle(UsersSheet, "B2")
		require.NoError(t, err)
		assert.Zero(t, idx)
	})
}

func TestExcelExporter_Empty(t *testing.T) {
	data, err := NewExcelExporter().Export(nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(VisitsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, visitHeaders, rows[0])
}

func TestExcelExporter_FileName(t *testing.T) {
	e := NewExcelExporter()
	e.now = func() time.Time { return time.Date(2025, 3, 1, 9, 5, 7, 0, time.UTC) }
	assert.Equal(t, "form_bronze_export_2025-03-01_09-05-07.xlsx", e.FileName())
}
