package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"form-bronze-bot/internal/telegram"
)

// ErrDispatcherClosed возвращается при попытке отправить событие в закрытый диспетчер.
var ErrDispatcherClosed = errors.New("dispatcher is closed")

// DefaultHandlerTimeout: ограничение времени обработки одного события.
const DefaultHandlerTimeout = 30 * time.Second

// DispatcherOption определяет функциональную опцию для диспетчера.
type DispatcherOption func(*Dispatcher)

// WithHandlerTimeout задаёт ограничение времени обработки события.
func WithHandlerTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithDispatcherLogger: опция для установки логгера.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// chatQueue: очередь событий одного диалога. Пока worker активен, новые события
// только добавляются в хвост.
type chatQueue struct {
	events []telegram.Event
}

// Dispatcher обрабатывает события одного диалога строго по очереди,
// а разные диалоги, параллельно. На каждый активный диалог приходится одна горутина;
// опустевшая очередь завершает свою горутину.
type Dispatcher struct {
	handle  Handler
	timeout time.Duration
	log     *slog.Logger

	mu     sync.Mutex
	queues map[int64]*chatQueue
	closed bool
	wg     sync.WaitGroup

	base context.Context
}

// NewDispatcher создает диспетчер для обработчика h.
func NewDispatcher(h Handler, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		handle:  h,
		timeout: DefaultHandlerTimeout,
		log:     slog.Default().With("component", "dispatcher"),
		queues:  make(map[int64]*chatQueue),
		base:    context.Background(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run читает события до закрытия канала или отмены контекста, затем дожидается
// обработки уже принятых событий.
func (d *Dispatcher) Run(ctx context.Context, events <-chan telegram.Event) {
	d.mu.Lock()
	// Обработчики не должны прерываться вместе с остановкой приёма обновлений.
	d.base = context.WithoutCancel(ctx)
	d.mu.Unlock()

	defer d.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := d.Submit(ev); err != nil {
				d.log.Warn("event dropped", slog.Int64("chat_id", ev.ChatID), slog.Any("error", err))
			}
		}
	}
}

// Submit ставит событие в очередь его диалога.
func (d *Dispatcher) Submit(ev telegram.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	q, active := d.queues[ev.ChatID]
	if active {
		q.events = append(q.events, ev)
		return nil
	}

	d.queues[ev.ChatID] = &chatQueue{}
	d.wg.Add(1)
	go d.work(ev)
	return nil
}

// Close перестаёт принимать события и ждёт завершения всех горутин.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

// Active возвращает число диалогов, события которых сейчас обрабатываются.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

func (d *Dispatcher) work(first telegram.Event) {
	defer d.wg.Done()

	ev := first
	for {
		d.process(ev)

		next, ok := d.next(ev.ChatID)
		if !ok {
			return
		}
		ev = next
	}
}

// next снимает следующее событие диалога или удаляет пустую очередь.
func (d *Dispatcher) next(chatID int64) (telegram.Event, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q := d.queues[chatID]
	if q == nil || len(q.events) == 0 {
		delete(d.queues, chatID)
		return telegram.Event{}, false
	}
	ev := q.events[0]
	q.events = q.events[1:]
	return ev, true
}

func (d *Dispatcher) process(ev telegram.Event) {
	d.mu.Lock()
	base := d.base
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(base, d.timeout)
	defer cancel()

	log := d.log.With(slog.Int64("chat_id", ev.ChatID), slog.String("kind", string(ev.Kind)))

	defer func() {
		if p := recover(); p != nil {
			log.Error("handler panicked",
				slog.Any("panic", p),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	start := time.Now()
	err := d.handle(ctx, ev)
	switch {
	case err == nil:
		log.Debug("event handled", slog.Duration("took", time.Since(start)))
	case errors.Is(err, ErrNoRoute):
		log.Debug("event ignored")
	default:
		log.Error("handler failed", slog.Any("error", fmt.Errorf("handle %s: %w", ev.Kind, err)))
	}
}
