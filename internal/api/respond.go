package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paulexconde/surveychat/pkg/fault"
)

type APIResponse struct {
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func RespondSuccess(c *gin.Context, code int, data any, message string) {
	c.JSON(code, APIResponse{
		Status:  "success",
		Code:    code,
		Message: message,
		TraceID: c.GetString(traceIDKey),
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, APIResponse{
		Status:  "error",
		Code:    code,
		Message: message,
		TraceID: c.GetString(traceIDKey),
	})
}

// HandleServiceError maps a service fault onto an HTTP status.
func HandleServiceError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case fault.IsStructuralError(err):
		RespondError(c, http.StatusBadRequest, fault.Message(err))
	case fault.IsClientError(err):
		RespondError(c, clientStatus(err), fault.Message(err))
	default:
		logger.Error("Request failed", "trace_id", c.GetString(traceIDKey), "path", c.FullPath(), "error", err)
		RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}

func clientStatus(err error) int {
	switch {
	case errors.Is(err, fault.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fault.ErrUniqueViolation), errors.Is(err, fault.ErrForeignKeyViolation):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
