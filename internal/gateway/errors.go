package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrSourceUnavailable - общий класс отказа бэкенда (сеть, не-2xx, открытый breaker).
// Вызывающая сторона деградирует в mock и не пробрасывает ошибку наружу.
var ErrSourceUnavailable = errors.New("gateway: source unavailable")

// StatusError - бэкенд ответил не-2xx
type StatusError struct {
	Endpoint   string
	StatusCode int
	Status     string
	RetryAfter time.Duration // из заголовка Retry-After (429/503), если был
}

func (e *StatusError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("gateway %s: %s (retry after %v)", e.Endpoint, e.Status, e.RetryAfter)
	}
	return fmt.Sprintf("gateway %s: %s", e.Endpoint, e.Status)
}

func (e *StatusError) Unwrap() error { return ErrSourceUnavailable }

// unavailable оборачивает транспортную ошибку в ErrSourceUnavailable с контекстом
func unavailable(endpoint string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, endpoint, err)
}

func newStatusError(endpoint string, resp *http.Response) *StatusError {
	e := &StatusError{
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			e.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return e
}

// isTransient решает, имеет ли смысл повтор: сеть, 5xx и 429 - да; прочие 4xx и отмена - нет.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var decErr *DecodeError
	if errors.As(err, &decErr) {
		return false
	}
	var sErr *StatusError
	if errors.As(err, &sErr) {
		return sErr.StatusCode >= 500 || sErr.StatusCode == http.StatusTooManyRequests
	}
	return true
}

// DecodeError - тело ответа не разобралось как JSON
type DecodeError struct {
	Endpoint string
	Cause    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("gateway %s: decode response: %v", e.Endpoint, e.Cause)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrSourceUnavailable, e.Cause} }
