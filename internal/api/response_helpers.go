// internal/api/response_helpers.go
package api

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/StandfmAI/internal/errors"
	"github.com/Corphon/StandfmAI/internal/services"
	"github.com/Corphon/StandfmAI/internal/utils"
)

// APIResponse is the envelope of every JSON response except the generation endpoints.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// ResponseHelper writes envelopes.
type ResponseHelper struct {
	logger *utils.Logger
}

func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{logger: utils.GetLogger()}
}

// Success writes a 200 envelope.
func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	rh.write(c, http.StatusOK, data, message)
}

// Created writes a 201 envelope.
func (rh *ResponseHelper) Created(c *gin.Context, data interface{}, message ...string) {
	rh.write(c, http.StatusCreated, data, message)
}

func (rh *ResponseHelper) write(c *gin.Context, status int, data interface{}, message []string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}
	if len(message) > 0 {
		response.Message = message[0]
	}
	c.JSON(status, response)
}

// sensitiveMarkers flag messages that may echo credentials back to the client.
var sensitiveMarkers = []string{"api_key", "apikey", "api key", "secret", "token", "password", "authorization", "bearer", "sk-"}

func sanitizeErrorMessage(message string) string {
	lower := strings.ToLower(message)
	for _, marker := range sensitiveMarkers {
		if strings.Contains(lower, marker) {
			return genericFailureMessage
		}
	}
	return message
}

// Error writes a failure envelope.
func (rh *ResponseHelper) Error(c *gin.Context, statusCode int, errorCode, message string) {
	c.JSON(statusCode, &APIResponse{
		Success:   false,
		Error:     sanitizeErrorMessage(message),
		Code:      errorCode,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	})
}

func (rh *ResponseHelper) BadRequest(c *gin.Context, message string) {
	rh.Error(c, http.StatusBadRequest, ErrorBadRequest, message)
}

func (rh *ResponseHelper) NotFound(c *gin.Context, code, message string) {
	rh.Error(c, http.StatusNotFound, code, message)
}

func (rh *ResponseHelper) InternalError(c *gin.Context, message string) {
	rh.Error(c, http.StatusInternalServerError, ErrorInternalError, message)
}

// FromError maps err onto status, code and user message and logs it.
func (rh *ResponseHelper) FromError(c *gin.Context, err error) {
	var appError *errors.AppError
	if !stderrors.As(err, &appError) {
		rh.logger.Error("Unclassified handler error", map[string]interface{}{
			"path":  c.FullPath(),
			"error": err.Error(),
		})
		rh.InternalError(c, genericFailureMessage)
		return
	}

	status := statusForErrorType(appError.Type)
	fields := map[string]interface{}{
		"path":   c.FullPath(),
		"type":   string(appError.Type),
		"status": status,
	}
	if appError.Err != nil {
		fields["cause"] = appError.Err.Error()
	}
	if status >= http.StatusInternalServerError {
		rh.logger.Error(appError.Message, fields)
	} else {
		rh.logger.Debug(appError.Message, fields)
	}

	rh.Error(c, status, appError.Code, appError.Message)
}

// Download writes an exported file as an attachment.
func (rh *ResponseHelper) Download(c *gin.Context, file *services.ExportedFile) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(file.Filename)))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

func (rh *ResponseHelper) getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
