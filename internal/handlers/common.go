package handlers

import (
	"errors"
	"net/http"

	"github.com/SAP-F-2025/quiz-engine/internal/services"
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

// NewBaseHandler creates a new base handler with logging capability
func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// requestLogger prefers the request scoped logger set by ContextLogger.
func (h *BaseHandler) requestLogger(c *gin.Context) utils.Logger {
	return utils.GetLoggerFromContext(c, h.logger)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := append([]interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}, additionalFields...)
	h.requestLogger(c).LogError(err, message, fields...)
}

// LogInfo logs informational messages with context
func (h *BaseHandler) LogInfo(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := append([]interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}, additionalFields...)
	h.requestLogger(c).Info(message, fields...)
}

// LogWarn logs warning messages with context
func (h *BaseHandler) LogWarn(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := append([]interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}, additionalFields...)
	h.requestLogger(c).Warn(message, fields...)
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error, details ...interface{}) {
	errorResp := ErrorResponse{
		Message: message,
	}

	if len(details) > 0 {
		errorResp.Details = details[0]
	}

	if err != nil && statusCode >= http.StatusInternalServerError {
		h.LogError(c, err, message, "status_code", statusCode)
	} else {
		h.LogWarn(c, message, "status_code", statusCode, "error", err)
	}

	c.JSON(statusCode, errorResp)
}

// RespondWithCode sends an error response tagged with a machine readable code
func (h *BaseHandler) RespondWithCode(c *gin.Context, statusCode int, code, message string, err error) {
	h.LogWarn(c, message, "status_code", statusCode, "code", code, "error", err)
	c.JSON(statusCode, ErrorResponse{Message: message, Code: code})
}

// RespondWithSuccess sends a consistent success response and logs it
func (h *BaseHandler) RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}, additionalFields ...interface{}) {
	fields := append([]interface{}{"status_code", statusCode}, additionalFields...)
	h.LogInfo(c, message, fields...)

	c.JSON(statusCode, SuccessResponse{
		Message: message,
		Data:    data,
	})
}

// handleServiceError maps service errors onto HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs services.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, validationErrs)
		return
	}

	// Rejected transitions leave the session unchanged.
	if services.IsNavigation(err) {
		code, message := "navigation_rejected", err.Error()
		var bre *services.BusinessRuleError
		if errors.As(err, &bre) {
			code, message = bre.Rule, bre.Message
		}
		h.RespondWithCode(c, http.StatusConflict, code, message, err)
		return
	}

	var bre *services.BusinessRuleError
	if errors.As(err, &bre) {
		h.RespondWithCode(c, http.StatusUnprocessableEntity, bre.Rule, bre.Message, err)
		return
	}

	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		h.RespondWithError(c, http.StatusNotFound, "Quiz session not found", err)
	case errors.Is(err, services.ErrNoticeNotFound):
		h.RespondWithError(c, http.StatusNotFound, "Notice not found", err)
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, "Resource not found", err)
	case errors.Is(err, services.ErrResultDuplicate):
		h.RespondWithCode(c, http.StatusConflict, "duplicate_attempt", "Result for this attempt was already recorded", err)
	case services.IsConflict(err):
		h.RespondWithError(c, http.StatusConflict, "Resource conflict", err)
	case services.IsValidation(err):
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
