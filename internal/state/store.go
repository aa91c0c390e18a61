package state

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultTTL: время жизни состояния диалога без активности.
const DefaultTTL = 24 * time.Hour

// ErrNoState возвращается, когда у диалога нет активного состояния или нужного значения.
var ErrNoState = errors.New("no conversation state")

// State: состояние пошагового ввода одного диалога.
type State struct {
	Step      string
	Data      map[string]string
	Photos    []string
	ExpiresAt time.Time
}

func (s *State) clone() State {
	out := State{Step: s.Step, ExpiresAt: s.ExpiresAt}
	if s.Data != nil {
		out.Data = make(map[string]string, len(s.Data))
		for k, v := range s.Data {
			out.Data[k] = v
		}
	}
	if s.Photos != nil {
		out.Photos = append([]string(nil), s.Photos...)
	}
	return out
}

// MemoryStore хранит состояния диалогов в памяти. После перезапуска состояния теряются.
type MemoryStore struct {
	items map[int64]*State
	mutex sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

// Option определяет функциональную опцию для MemoryStore.
type Option func(*MemoryStore)

// WithTTL задаёт время жизни состояния.
func WithTTL(ttl time.Duration) Option {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore создает новый экземпляр MemoryStore
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		items: make(map[int64]*State),
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get возвращает копию состояния диалога.
func (s *MemoryStore) Get(chatID int64) (State, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, ok := s.alive(chatID)
	if !ok {
		return State{}, false
	}
	return item.clone(), true
}

// Step возвращает текущий шаг или пустую строку.
func (s *MemoryStore) Step(chatID int64) string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, ok := s.alive(chatID)
	if !ok {
		return ""
	}
	return item.Step
}

// SetStep переводит диалог на шаг, сохраняя накопленные данные.
func (s *MemoryStore) SetStep(chatID int64, step string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	item := s.touch(chatID)
	item.Step = step
}

// Begin начинает новый сценарий: прежние данные отбрасываются.
func (s *MemoryStore) Begin(chatID int64, step string, data map[string]string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	item := &State{Step: step, Data: make(map[string]string, len(data))}
	for k, v := range data {
		item.Data[k] = v
	}
	item.ExpiresAt = s.now().Add(s.ttl)
	s.items[chatID] = item
}

// Update дописывает значения в данные диалога.
func (s *MemoryStore) Update(chatID int64, kv map[string]string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	item := s.touch(chatID)
	for k, v := range kv {
		item.Data[k] = v
	}
}

// Value возвращает сохранённое значение. ErrNoState, если состояния или ключа нет.
func (s *MemoryStore) Value(chatID int64, key string) (string, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	item, ok := s.alive(chatID)
	if !ok {
		return "", ErrNoState
	}
	v, ok := item.Data[key]
	if !ok {
		return "", ErrNoState
	}
	return v, nil
}

// AddPhoto добавляет file id фотографии и возвращает их количество.
func (s *MemoryStore) AddPhoto(chatID int64, fileID string) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	item := s.touch(chatID)
	item.Photos = append(item.Photos, fileID)
	return len(item.Photos)
}

// Clear удаляет состояние диалога.
func (s *MemoryStore) Clear(chatID int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.items, chatID)
}

// Len возвращает число живых состояний.
func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	n := 0
	for id := range s.items {
		if _, ok := s.alive(id); ok {
			n++
		}
	}
	return n
}

// CleanupExpired удаляет просроченные состояния
func (s *MemoryStore) CleanupExpired() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	removed := 0
	for id, item := range s.items {
		if now.After(item.ExpiresAt) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// StartCleanupTicker запускает таймер для периодической очистки просроченных состояний
func (s *MemoryStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired()
			}
		}
	}()
}

// alive вызывается под блокировкой.
func (s *MemoryStore) alive(chatID int64) (*State, bool) {
	item, ok := s.items[chatID]
	if !ok || s.now().After(item.ExpiresAt) {
		return nil, false
	}
	return item, true
}

// touch вызывается под блокировкой записи: создает состояние при необходимости и продлевает его.
func (s *MemoryStore) touch(chatID int64) *State {
	item, ok := s.alive(chatID)
	if !ok {
		item = &State{Data: make(map[string]string)}
		s.items[chatID] = item
	}
	if item.Data == nil {
		item.Data = make(map[string]string)
	}
	item.ExpiresAt = s.now().Add(s.ttl)
	return item
}
