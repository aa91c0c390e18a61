package bot

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"

	"form-bronze-bot/internal/navigation"
)

func TestLabel(t *testing.T) {
	t.Run("Короткая подпись не меняется", func(t *testing.T) {
		assert.Equal(t, "🏛 О галерее", label("🏛 О галерее"))
	})

	t.Run("Длинная подпись обрезается по ширине", func(t *testing.T) {
		got := label(strings.Repeat("Бронза ", 10))
		assert.True(t, strings.HasSuffix(got, "…"))
		assert.LessOrEqual(t, runewidth.StringWidth(got), maxLabelWidth)
	})

	t.Run("Широкие символы считаются за две колонки", func(t *testing.T) {
		got := label(strings.Repeat("雕", 30))
		assert.LessOrEqual(t, runewidth.StringWidth(got), maxLabelWidth)
	})
}

func TestGrid(t *testing.T) {
	buttons := []navigation.InlineButton{{Data: "a"}, {Data: "b"}, {Data: "c"}}
	want := [][]navigation.InlineButton{{{Data: "a"}, {Data: "b"}}, {{Data: "c"}}}
	if diff := cmp.Diff(want, grid(2, buttons...)); diff != "" {
		t.Errorf("grid() mismatch (-want +got):\n%s", diff)
	}
}

func TestMainMenuKeyboard(t *testing.T) {
	data := func(kb navigation.InlineKeyboard) []string {
		var out []string
		for _, row := range kb.Rows {
			for _, b := range row {
				out = append(out, b.Data)
			}
		}
		return out
	}

	common := []string{"menu:sculptures", "menu:about", "menu:projects", "menu:designer"}
	tests := []struct {
		name       string
		registered bool
		want       []string
	}{
		{name: "Зарегистрированный", registered: true, want: append(append([]string{}, common...), "menu:invite_main", "menu:settings")},
		{name: "Гость", registered: false, want: append(append([]string{}, common...), "menu:guest_contacts", "menu:guest_settings")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, data(mainMenuKeyboard(tt.registered))); diff != "" {
				t.Errorf("mainMenuKeyboard() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPhoneKeyboard(t *testing.T) {
	kb := phoneKeyboard(btnSkip)
	assert.True(t, kb.OneTime)
	assert.True(t, kb.Resize)
	if assert.Len(t, kb.Rows, 2) {
		assert.True(t, kb.Rows[0][0].RequestContact)
		assert.Equal(t, btnSkip, kb.Rows[1][0].Text)
	}
}
