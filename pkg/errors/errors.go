package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies application errors independently of the transport that renders them.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindNotFound        Kind = "not_found"
	KindUnauthorized    Kind = "unauthorized"
	KindInvalidArgument Kind = "invalid_argument"
	KindConflict        Kind = "conflict"
	KindTransient       Kind = "transient"
	KindInternal        Kind = "internal"
)

// AppError provides a structured error that can be rendered to API and realtime consumers.
type AppError struct {
	Kind       Kind   `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}

	return e.Message
}

// Unwrap exposes the internal error for errors.Is / errors.As compatibility.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is reports whether target is an AppError of the same kind and code, so copies made by
// WithMessage and WithInternal still match their sentinel.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) || e == nil || other == nil {
		return false
	}
	return e.Kind == other.Kind && e.Code == other.Code
}

// WithInternal returns a copy of the AppError with an attached internal error.
func (e *AppError) WithInternal(err error) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Internal = err
	return &cpy
}

// WithMessage returns a copy of the AppError carrying a caller-facing message.
func (e *AppError) WithMessage(format string, args ...any) *AppError {
	if e == nil {
		return nil
	}

	cpy := *e
	cpy.Message = fmt.Sprintf(format, args...)
	return &cpy
}

// Common errors exposed to the rest of the application.
var (
	ErrUnauthenticated = &AppError{
		Kind:       KindUnauthenticated,
		Code:       "UNAUTHENTICATED",
		Message:    "User not authenticated",
		StatusCode: http.StatusUnauthorized,
	}

	ErrNotFound = &AppError{
		Kind:       KindNotFound,
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: http.StatusNotFound,
	}

	ErrUnauthorized = &AppError{
		Kind:       KindUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    "Insufficient permissions",
		StatusCode: http.StatusForbidden,
	}

	ErrInvalidArgument = &AppError{
		Kind:       KindInvalidArgument,
		Code:       "INVALID_ARGUMENT",
		Message:    "Invalid request",
		StatusCode: http.StatusBadRequest,
	}

	ErrConflict = &AppError{
		Kind:       KindConflict,
		Code:       "CONFLICT",
		Message:    "Resource already exists",
		StatusCode: http.StatusConflict,
	}

	ErrTransient = &AppError{
		Kind:       KindTransient,
		Code:       "TRANSIENT",
		Message:    "Storage temporarily unavailable",
		StatusCode: http.StatusServiceUnavailable,
	}

	ErrInternal = &AppError{
		Kind:       KindInternal,
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "Internal server error",
		StatusCode: http.StatusInternalServerError,
	}
)

// New builds a new application error with the provided metadata.
func New(kind Kind, code, message string, statusCode int) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap turns any error into a transient AppError while keeping the original error for logging.
func Wrap(err error, message string) *AppError {
	return ErrTransient.WithMessage("%s", message).WithInternal(err)
}

// FromError converts a generic error into an AppError, defaulting to ErrInternal.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return ErrInternal.WithInternal(err)
}

// KindOf returns the kind carried by err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return FromError(err).Kind
}

// IsKind reports whether err is an AppError of the supplied kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// NewInvalidArgument wraps validation errors with a helpful message.
func NewInvalidArgument(message string) *AppError {
	return ErrInvalidArgument.WithMessage("%s", message)
}

// NewNotFound reports a missing resource by name.
func NewNotFound(resource string) *AppError {
	return ErrNotFound.WithMessage("%s not found", resource)
}

// NewUnauthorized reports a missing role with a precise message.
func NewUnauthorized(message string) *AppError {
	return ErrUnauthorized.WithMessage("%s", message)
}
