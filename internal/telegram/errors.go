package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	// ErrTransportTransient: сетевой сбой или ошибка сервера, запрос можно повторить.
	ErrTransportTransient = errors.New("transient transport error")
	// ErrTransportPermanent: неверный запрос, запрет или отсутствующее сообщение; повтор бесполезен.
	ErrTransportPermanent = errors.New("permanent transport error")
	// retryAfterRegex используется для парсинга длительности ожидания из текста ошибки.
	retryAfterRegex = regexp.MustCompile(`(?i)retry after (\d+)`)
)

// RetryAfterError сообщает, что транспорт просит подождать перед повтором.
type RetryAfterError struct {
	Wait time.Duration
	Err  error
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s: %v", e.Wait, e.Err)
}

func (e *RetryAfterError) Unwrap() error {
	return e.Err
}

// Classify относит ошибку транспорта к одной из категорий:
// *RetryAfterError, ErrTransportTransient или ErrTransportPermanent.
// Ошибки отмены контекста возвращаются как есть.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var ra *RetryAfterError
	if errors.As(err, &ra) || errors.Is(err, ErrTransportTransient) || errors.Is(err, ErrTransportPermanent) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if apiErr, ok := asAPIError(err); ok {
		if apiErr.RetryAfter > 0 {
			return &RetryAfterError{Wait: time.Duration(apiErr.RetryAfter) * time.Second, Err: err}
		}
		if apiErr.Code == http.StatusTooManyRequests {
			wait, ok := parseRetryAfter(err)
			if !ok {
				wait = time.Second
			}
			return &RetryAfterError{Wait: wait, Err: err}
		}
		if apiErr.Code >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %w", ErrTransportTransient, err)
		}
		return fmt.Errorf("%w: %w", ErrTransportPermanent, err)
	}

	if wait, ok := parseRetryAfter(err); ok {
		return &RetryAfterError{Wait: wait, Err: err}
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) ||
		errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrTransportTransient, err)
	}

	return fmt.Errorf("%w: %w", ErrTransportPermanent, err)
}

// asAPIError достаёт ошибку Bot API независимо от того, передана она по значению или по указателю.
func asAPIError(err error) (*tgbotapi.Error, bool) {
	var ptr *tgbotapi.Error
	if errors.As(err, &ptr) && ptr != nil {
		return ptr, true
	}
	var val tgbotapi.Error
	if errors.As(err, &val) {
		return &val, true
	}
	return nil, false
}

// parseRetryAfter извлекает длительность ожидания из текста ошибки.
func parseRetryAfter(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}

	matches := retryAfterRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0, false
	}

	seconds, convErr := strconv.Atoi(matches[1])
	if convErr != nil {
		return 0, false
	}

	return time.Duration(seconds) * time.Second, true
}

// isGoneOrForbidden сообщает, что сообщение уже удалено, не может быть удалено
// или бот заблокирован в диалоге.
func isGoneOrForbidden(err error) bool {
	apiErr, ok := asAPIError(err)
	if !ok {
		return false
	}
	if apiErr.Code == http.StatusForbidden {
		return true
	}
	msg := strings.ToLower(apiErr.Message)
	return strings.Contains(msg, "message to delete not found") ||
		strings.Contains(msg, "message can't be deleted") ||
		strings.Contains(msg, "message_id_invalid") ||
		strings.Contains(msg, "chat not found")
}
