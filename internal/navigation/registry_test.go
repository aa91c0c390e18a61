package navigation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func named(name string) Renderer {
	return func(context.Context, int64, RenderContext) (Screen, error) {
		return Screen{Text: name}, nil
	}
}

func resolveName(t *testing.T, r *Registry, id string) string {
	t.Helper()
	prefix, renderer, err := r.Resolve(id)
	require.NoError(t, err)
	s, err := renderer(context.Background(), 0, RenderContext{ScreenID: id, Prefix: prefix})
	require.NoError(t, err)
	return s.Text
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry()
	r.Register("collection", named("collection"))
	r.Register("collection_sculptures", named("collection_sculptures"))
	r.Register("about", named("about"))
	r.Register("about:authors", named("authors"))

	tests := []struct {
		id   string
		want string
	}{
		{"collection:5:0", "collection"},
		{"collection", "collection"},
		{"collection_sculptures:1", "collection_sculptures"},
		{"about", "about"},
		{"about:authors", "authors"},
		{"about:authors:2", "authors"},
		{"about:history", "about"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveName(t, r, tt.id))
		})
	}

	t.Run("нет подходящего префикса", func(t *testing.T) {
		for _, id := range []string{"collections", "coll", "", "unknown:1"} {
			_, _, err := r.Resolve(id)
			assert.ErrorIs(t, err, ErrScreenNotFound, id)
		}
	})

	t.Run("последняя регистрация побеждает", func(t *testing.T) {
		r.Register("about", named("about v2"))
		assert.Equal(t, "about v2", resolveName(t, r, "about"))
	})
}

func TestRegistry_Validate(t *testing.T) {
	t.Run("корректные маршруты", func(t *testing.T) {
		r := NewRegistry()
		r.Register("collection", named("c"), Arity(2))
		r.Register("sculpture", named("s"), Arity(2))
		r.Register("about", named("a"))
		r.Register("about:authors", named("aa"))
		r.Register("settings:guest", named("g"))
		assert.NoError(t, r.Validate())
		assert.Equal(t, []string{"about", "about:authors", "collection", "sculpture", "settings:guest"}, r.Prefixes())
	})

	t.Run("параметризованный префикс перекрывает другой маршрут", func(t *testing.T) {
		r := NewRegistry()
		r.Register("collection", named("c"), Arity(2))
		r.Register("collection:featured", named("f"))
		err := r.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAmbiguousPrefix)
	})

	t.Run("маршрут глубже числа параметров не конфликтует", func(t *testing.T) {
		r := NewRegistry()
		r.Register("project", named("p"), Arity(1))
		r.Register("project:1:gallery", named("g"))
		assert.NoError(t, r.Validate())
	})

	t.Run("некорректные префиксы", func(t *testing.T) {
		r := NewRegistry()
		r.Register("", named("empty"))
		r.Register("a::b", named("double"))
		r.Register("with space", named("space"))
		r.Register("trailing:", named("trailing"))
		r.Register("nil", nil)
		err := r.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidPrefix)
		for _, p := range []string{"a::b", "with space", "trailing:", "nil"} {
			assert.Contains(t, err.Error(), p)
		}
	})
}

func TestMatchesPrefix(t *testing.T) {
	assert.True(t, MatchesPrefix("a:b", "a"))
	assert.True(t, MatchesPrefix("a", "a"))
	assert.False(t, MatchesPrefix("ab", "a"))
	assert.False(t, MatchesPrefix("a", ""))
}
