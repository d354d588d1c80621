package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind классифицирует ошибку для выбора HTTP статуса и политики ретраев
type Kind string

const (
	KindBadRequest        Kind = "bad_request"        // невалидный ввод, не ретраится
	KindNotFound          Kind = "not_found"          // сущность отсутствует
	KindIllegalTransition Kind = "illegal_transition" // нарушение машины состояний или проигранная гонка
	KindUnavailable       Kind = "unavailable"        // хранилище/индекс недоступны, можно ретраить с backoff
)

// Error представляет классифицированную ошибку приложения
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// BadRequest создает ошибку невалидного ввода
func BadRequest(format string, args ...interface{}) *Error {
	return &Error{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// NotFound создает ошибку отсутствия сущности
func NotFound(entity string, id interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %v not found", entity, id)}
}

// IllegalTransition создает ошибку недопустимого перехода статуса
func IllegalTransition(from, to string) *Error {
	return &Error{Kind: KindIllegalTransition, Message: fmt.Sprintf("transition from %q to %q is not allowed", from, to)}
}

// Unavailable оборачивает ошибку недоступности хранилища
func Unavailable(message string, err error) *Error {
	return &Error{Kind: KindUnavailable, Message: message, Err: err}
}

// KindOf возвращает Kind ошибки, пустую строку если ошибка не классифицирована
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// HTTPStatus возвращает HTTP статус для ошибки
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindIllegalTransition:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
