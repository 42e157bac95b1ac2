// Package apperror carries the error taxonomy shared by services and handlers.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType int

const (
	InternalError ErrorType = iota
	ValidationError
	AuthenticationError
	PermissionError
	NotFoundError
	ConflictError
)

func (t ErrorType) String() string {
	switch t {
	case ValidationError:
		return "validation"
	case AuthenticationError:
		return "authentication"
	case PermissionError:
		return "permission"
	case NotFoundError:
		return "not_found"
	case ConflictError:
		return "conflict"
	default:
		return "internal"
	}
}

// AppError is returned by services for every failure the client should see.
// Fields holds per-field validation messages and may be nil.
type AppError struct {
	Type    ErrorType
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error type to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case ValidationError:
		return http.StatusBadRequest
	case AuthenticationError:
		return http.StatusUnauthorized
	case PermissionError:
		return http.StatusForbidden
	case NotFoundError:
		return http.StatusNotFound
	case ConflictError:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func New(errType ErrorType, message string, err error) *AppError {
	return &AppError{Type: errType, Message: message, Err: err}
}

func NewValidationError(message string, err error) *AppError {
	return New(ValidationError, message, err)
}

// NewFieldValidationError wraps the output of utils.ValidateStruct.
func NewFieldValidationError(message string, fields map[string]string) *AppError {
	return &AppError{Type: ValidationError, Message: message, Fields: fields}
}

func NewAuthenticationError(message string, err error) *AppError {
	return New(AuthenticationError, message, err)
}

func NewPermissionError(message string, err error) *AppError {
	return New(PermissionError, message, err)
}

func NewNotFoundError(message string, err error) *AppError {
	return New(NotFoundError, message, err)
}

func NewConflictError(message string, err error) *AppError {
	return New(ConflictError, message, err)
}

func NewInternalError(message string, err error) *AppError {
	return New(InternalError, message, err)
}

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func Is(err error, errType ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == errType
}

func IsValidation(err error) bool     { return Is(err, ValidationError) }
func IsAuthentication(err error) bool { return Is(err, AuthenticationError) }
func IsPermission(err error) bool     { return Is(err, PermissionError) }
func IsNotFound(err error) bool       { return Is(err, NotFoundError) }
func IsConflict(err error) bool       { return Is(err, ConflictError) }
