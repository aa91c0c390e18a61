package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock: управляемый источник времени.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestMemoryStore(t *testing.T) {
	t.Run("Шаг и данные", func(t *testing.T) {
		s := NewMemoryStore()
		assert.Equal(t, "", s.Step(1))

		s.SetStep(1, "reg:name")
		s.Update(1, map[string]string{"name": "Иван"})
		s.SetStep(1, "reg:email")

		st, ok := s.Get(1)
		require.True(t, ok)
		assert.Equal(t, "reg:email", st.Step)
		assert.Equal(t, "Иван", st.Data["name"])

		v, err := s.Value(1, "name")
		require.NoError(t, err)
		assert.Equal(t, "Иван", v)

		_, err = s.Value(1, "email")
		assert.ErrorIs(t, err, ErrNoState)
		_, err = s.Value(2, "name")
		assert.ErrorIs(t, err, ErrNoState)
	})

	t.Run("Begin сбрасывает прежние данные", func(t *testing.T) {
		s := NewMemoryStore()
		s.Update(1, map[string]string{"old": "x"})
		s.AddPhoto(1, "p1")

		s.Begin(1, "adm:sc:collection", map[string]string{"mode": "add"})

		st, ok := s.Get(1)
		require.True(t, ok)
		assert.Equal(t, map[string]string{"mode": "add"}, st.Data)
		assert.Empty(t, st.Photos)
	})

	t.Run("Фотографии копятся", func(t *testing.T) {
		s := NewMemoryStore()
		assert.Equal(t, 1, s.AddPhoto(1, "a"))
		assert.Equal(t, 2, s.AddPhoto(1, "b"))

		st, _ := s.Get(1)
		assert.Equal(t, []string{"a", "b"}, st.Photos)
	})

	t.Run("Get возвращает копию", func(t *testing.T) {
		s := NewMemoryStore()
		s.Update(1, map[string]string{"k": "v"})

		st, _ := s.Get(1)
		st.Data["k"] = "changed"

		v, _ := s.Value(1, "k")
		assert.Equal(t, "v", v)
	})

	t.Run("Clear", func(t *testing.T) {
		s := NewMemoryStore()
		s.SetStep(1, "settings:name")
		s.Clear(1)
		_, ok := s.Get(1)
		assert.False(t, ok)
		assert.Equal(t, 0, s.Len())
	})
}

func TestMemoryStore_TTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewMemoryStore(WithTTL(time.Hour), WithClock(clock.Now))

	s.SetStep(1, "reg:name")
	s.SetStep(2, "reg:email")

	clock.Advance(30 * time.Minute)
	s.SetStep(2, "reg:phone")

	clock.Advance(45 * time.Minute)
	assert.Equal(t, "", s.Step(1), "просроченное состояние не видно")
	assert.Equal(t, "reg:phone", s.Step(2), "запись продлевает жизнь состояния")
	assert.Equal(t, 1, s.Len())

	assert.Equal(t, 1, s.CleanupExpired())

	s.SetStep(1, "invite:phone")
	st, ok := s.Get(1)
	require.True(t, ok)
	assert.Empty(t, st.Data, "после истечения начинается новое состояние")
}

func TestMemoryStore_StartCleanupTicker(t *testing.T) {
	s := NewMemoryStore(WithTTL(50 * time.Millisecond))
	s.SetStep(1, "reg:name")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.StartCleanupTicker(ctx, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		s.mutex.RLock()
		defer s.mutex.RUnlock()
		return len(s.items) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			chat := int64(i % 5)
			s.SetStep(chat, "step")
			s.AddPhoto(chat, "p")
			_, _ = s.Get(chat)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 5, s.Len())
}
