// Package apperr carries the error kinds that cross service boundaries and
// their JSON rendering for fiber handlers.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindRateLimited     Kind = "rate_limited"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindInternal        Kind = "internal"
)

// GenericFailureMessage is shown whenever an infrastructure failure hides the real cause.
const GenericFailureMessage = "Не удалось выполнить операцию. Попробуйте ещё раз или позвоните нам."

// FieldErrors maps a field name to every message collected for it.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

func (f FieldErrors) HasErrors() bool {
	return len(f) > 0
}

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(f[k], "; ")))
	}
	return strings.Join(parts, ", ")
}

// Error is the structured failure returned by services.
type Error struct {
	Kind           Kind
	Message        string
	Fields         FieldErrors
	ResetInSeconds int
	Err            error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Fields.Error())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(fields FieldErrors) *Error {
	return &Error{Kind: KindValidation, Message: "Проверьте правильность заполнения формы", Fields: fields}
}

// Field is a shortcut for a validation error on a single field.
func Field(field, message string) *Error {
	return Validation(FieldErrors{field: {message}})
}

func RateLimited(resetInSeconds int) *Error {
	return &Error{
		Kind:           KindRateLimited,
		Message:        fmt.Sprintf("Слишком много запросов. Попробуйте через %d сек.", resetInSeconds),
		ResetInSeconds: resetInSeconds,
	}
}

func Unauthenticated(message string) *Error {
	if message == "" {
		message = "Требуется авторизация"
	}
	return &Error{Kind: KindUnauthenticated, Message: message}
}

func Forbidden() *Error {
	return &Error{Kind: KindForbidden, Message: "Недостаточно прав"}
}

func NotFound(message string) *Error {
	if message == "" {
		message = "Запись не найдена"
	}
	return &Error{Kind: KindNotFound, Message: message}
}

// Internal wraps an infrastructure failure. The cause is kept for logs only.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: GenericFailureMessage, Err: err}
}

// KindOf reports the kind of err. Unknown errors count as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// As returns the *Error inside err, wrapping unknown errors as internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// HTTPStatus maps a kind to its response code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return fiber.StatusUnprocessableEntity
	case KindRateLimited:
		return fiber.StatusTooManyRequests
	case KindUnauthenticated:
		return fiber.StatusUnauthorized
	case KindForbidden:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// Body is the "error" member of a failed JSON response.
type Body struct {
	Kind           Kind        `json:"kind"`
	Message        string      `json:"message"`
	Fields         FieldErrors `json:"fields,omitempty"`
	ResetInSeconds int         `json:"resetInSeconds,omitempty"`
}

// Respond writes {success:false, error:{...}} with the matching status code.
// Internal causes never reach the client.
func Respond(c *fiber.Ctx, err error) error {
	e := As(err)
	if e.Kind == KindRateLimited && e.ResetInSeconds > 0 {
		c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", e.ResetInSeconds))
	}
	return c.Status(HTTPStatus(e.Kind)).JSON(fiber.Map{
		"success": false,
		"error": Body{
			Kind:           e.Kind,
			Message:        e.Message,
			Fields:         e.Fields,
			ResetInSeconds: e.ResetInSeconds,
		},
	})
}

// OK writes {success:true, data:...}.
func OK(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}
