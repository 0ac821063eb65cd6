// internal/api/error_codes.go
package api

import (
	"net/http"

	"github.com/Corphon/StandfmAI/internal/errors"
)

// API error codes not carried by an AppError.
const (
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorRateLimited   = "RATE_LIMIT_EXCEEDED"
	ErrorTaskNotFound  = "TASK_NOT_FOUND"
)

// genericFailureMessage replaces messages that may leak credentials.
const genericFailureMessage = "処理に失敗しました"

// statusForErrorType maps an AppError type to its HTTP status.
func statusForErrorType(t errors.ErrorType) int {
	switch t {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeConflict:
		return http.StatusConflict
	case errors.ErrorTypeUpstreamCall:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
