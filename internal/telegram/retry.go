package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultNetworkAttempts: общее число попыток при сетевых сбоях (первая + 2 повтора).
	DefaultNetworkAttempts = 3
	// DefaultInitialBackoff: пауза перед первым повтором; далее удваивается.
	DefaultInitialBackoff = time.Second
	// DefaultBackoffMultiplier: множитель экспоненциальной паузы.
	DefaultBackoffMultiplier = 2.0
)

// RetryPolicy оборачивает исходящие вызовы транспорта:
// при rate limit ждёт указанное транспортом время и повторяет (без ограничения числа повторов),
// при сетевых сбоях повторяет с экспоненциальной паузой, постоянные ошибки возвращает сразу.
type RetryPolicy struct {
	attempts   int
	initial    time.Duration
	multiplier float64
	sleep      func(ctx context.Context, d time.Duration) error
	log        *slog.Logger
}

// RetryOption определяет функциональную опцию для RetryPolicy.
type RetryOption func(*RetryPolicy)

// WithNetworkAttempts задаёт общее число попыток при сетевых сбоях.
func WithNetworkAttempts(n int) RetryOption {
	return func(p *RetryPolicy) {
		if n > 0 {
			p.attempts = n
		}
	}
}

// WithBackoff задаёт начальную паузу и множитель.
func WithBackoff(initial time.Duration, multiplier float64) RetryOption {
	return func(p *RetryPolicy) {
		if initial > 0 {
			p.initial = initial
		}
		if multiplier >= 1 {
			p.multiplier = multiplier
		}
	}
}

// WithSleep подменяет функцию ожидания (используется в тестах).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(p *RetryPolicy) {
		if sleep != nil {
			p.sleep = sleep
		}
	}
}

// WithRetryLogger устанавливает логгер политики.
func WithRetryLogger(l *slog.Logger) RetryOption {
	return func(p *RetryPolicy) {
		if l != nil {
			p.log = l
		}
	}
}

// NewRetryPolicy создает политику повторов с параметрами по умолчанию: 3 попытки, паузы 1s и 2s.
func NewRetryPolicy(opts ...RetryOption) *RetryPolicy {
	p := &RetryPolicy{
		attempts:   DefaultNetworkAttempts,
		initial:    DefaultInitialBackoff,
		multiplier: DefaultBackoffMultiplier,
		sleep:      sleepContext,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Do выполняет fn с повторами. op используется в логах и в тексте ошибки.
func (p *RetryPolicy) Do(ctx context.Context, op string, fn func() error) error {
	b := p.newBackOff()

	for {
		err := fn()
		if err == nil {
			return nil
		}

		classified := Classify(err)

		var ra *RetryAfterError
		switch {
		case errors.As(classified, &ra):
			p.log.WarnContext(ctx, "transport rate limited, waiting", slog.String("op", op), slog.Duration("wait", ra.Wait))
			if sleepErr := p.sleep(ctx, ra.Wait); sleepErr != nil {
				return fmt.Errorf("%s: %w", op, errors.Join(classified, sleepErr))
			}
		case errors.Is(classified, ErrTransportTransient):
			wait := b.NextBackOff()
			if wait == backoff.Stop {
				return fmt.Errorf("%s: retries exhausted: %w", op, classified)
			}
			p.log.WarnContext(ctx, "transient transport error, retrying",
				slog.String("op", op), slog.Duration("backoff", wait), slog.Any("error", err))
			if sleepErr := p.sleep(ctx, wait); sleepErr != nil {
				return fmt.Errorf("%s: %w", op, errors.Join(classified, sleepErr))
			}
		default:
			return fmt.Errorf("%s: %w", op, classified)
		}
	}
}

// newBackOff строит детерминированную экспоненциальную паузу без джиттера.
func (p *RetryPolicy) newBackOff() backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.initial
	exp.Multiplier = p.multiplier
	exp.RandomizationFactor = 0
	exp.MaxInterval = time.Hour
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithMaxRetries(exp, uint64(p.attempts-1))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
