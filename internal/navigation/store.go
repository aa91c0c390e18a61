package navigation

import "sync"

// conversation хранит историю и последние отрисованные сообщения одного диалога.
// mu сериализует всю последовательность удаление → отправка → запись.
type conversation struct {
	mu      sync.Mutex
	stack   []string
	lastIDs []int
}

// Store владеет состоянием навигации всех диалогов.
// Записи создаются лениво и живут всё время работы процесса.
type Store struct {
	mu    sync.RWMutex
	convs map[int64]*conversation
}

// NewStore создает пустое хранилище навигации.
func NewStore() *Store {
	return &Store{convs: make(map[int64]*conversation)}
}

// conv возвращает состояние диалога, создавая его при первом обращении.
func (s *Store) conv(chatID int64) *conversation {
	s.mu.RLock()
	c, ok := s.convs[chatID]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok = s.convs[chatID]; ok {
		return c
	}
	c = &conversation{}
	s.convs[chatID] = c
	return c
}

// Len возвращает количество известных диалогов.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.convs)
}

func (c *conversation) push(id string) {
	c.stack = append(c.stack, id)
}

func (c *conversation) replaceTop(id string) {
	if len(c.stack) == 0 {
		c.stack = append(c.stack, id)
		return
	}
	c.stack[len(c.stack)-1] = id
}

func (c *conversation) pop() (string, bool) {
	if len(c.stack) == 0 {
		return "", false
	}
	top := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return top, true
}

func (c *conversation) peek() (string, bool) {
	if len(c.stack) == 0 {
		return "", false
	}
	return c.stack[len(c.stack)-1], true
}

func (c *conversation) clear() {
	c.stack = nil
}
