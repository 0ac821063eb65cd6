// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an application error.
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation_error"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeUpstreamParse ErrorType = "upstream_parse_error"
	ErrorTypeUpstreamCall  ErrorType = "upstream_call_error"
	ErrorTypePersistence   ErrorType = "persistence_error"
	ErrorTypeConflict      ErrorType = "conflict_error"
)

// AppError is the error shape shared by services and handlers.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string // machine readable code returned to clients
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause.
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError of the given type.
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

// NewValidationError reports user-correctable input problems.
func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

// NewNotFoundError reports a missing resource.
func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

// NewUpstreamParseError reports a collaborator response that could not be
// located or parsed as structured data.
func NewUpstreamParseError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeUpstreamParse, message, originalError)
}

// NewUpstreamCallError reports a transport or auth failure of a collaborator.
func NewUpstreamCallError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeUpstreamCall, message, originalError)
}

// NewPersistenceError reports a local read/write failure.
func NewPersistenceError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypePersistence, message, originalError)
}

// NewConflictError reports a request that collides with work already in progress.
func NewConflictError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeConflict, message, originalError)
}

// TypeOf returns the ErrorType of the first AppError in the chain, or "".
func TypeOf(err error) ErrorType {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type
	}
	return ""
}

// MessageOf returns the user-facing message of err: the Message of the
// first AppError in the chain, or err.Error().
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Message
	}
	return err.Error()
}

// IsValidationError reports whether err is a validation error.
func IsValidationError(err error) bool {
	return TypeOf(err) == ErrorTypeValidation
}

// IsNotFoundError reports whether err is a not-found error.
func IsNotFoundError(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsUpstreamParseError reports whether err is an upstream parse error.
func IsUpstreamParseError(err error) bool {
	return TypeOf(err) == ErrorTypeUpstreamParse
}

// IsUpstreamCallError reports whether err is an upstream call error.
func IsUpstreamCallError(err error) bool {
	return TypeOf(err) == ErrorTypeUpstreamCall
}

// IsConflictError reports whether err is a conflict error.
func IsConflictError(err error) bool {
	return TypeOf(err) == ErrorTypeConflict
}

// IsPersistenceError reports whether err is a persistence error.
func IsPersistenceError(err error) bool {
	return TypeOf(err) == ErrorTypePersistence
}

func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeUpstreamParse:
		return "UPSTREAM_PARSE_ERROR"
	case ErrorTypeUpstreamCall:
		return "UPSTREAM_CALL_ERROR"
	case ErrorTypePersistence:
		return "PERSISTENCE_ERROR"
	case ErrorTypeConflict:
		return "CONFLICT"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapError prefixes message onto err, keeping the type of an existing AppError.
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		return &AppError{
			Type:    appError.Type,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError.Err,
			Code:    appError.Code,
		}
	}

	return NewAppError(errType, message, err)
}
