package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalServer = errors.New("internal server error")
)

// AppError carries a caller-facing message alongside one of the sentinel kinds.
// errors.Is(err, models.ErrNotFound) works through Unwrap.
type AppError struct {
	Kind    error
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Kind
}

// NewError builds an AppError of the given kind.
func NewError(kind error, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

// ValidationError is shorthand for NewError(ErrValidation, message).
func ValidationError(message string) *AppError {
	return NewError(ErrValidation, message)
}

// AuthError is shorthand for NewError(ErrUnauthorized, message).
func AuthError(message string) *AppError {
	return NewError(ErrUnauthorized, message)
}

// NotFoundError is shorthand for NewError(ErrNotFound, message).
func NotFoundError(message string) *AppError {
	return NewError(ErrNotFound, message)
}

// ConflictError is shorthand for NewError(ErrConflict, message).
func ConflictError(message string) *AppError {
	return NewError(ErrConflict, message)
}

// PublicMessage returns the message safe to show a caller. Errors that are not
// AppErrors never leak their text.
func PublicMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "resource not found"
	case errors.Is(err, ErrConflict):
		return "resource already exists"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrValidation):
		return "invalid request"
	}
	return "internal server error"
}
