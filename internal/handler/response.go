package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/mapleship/delivery-api/pkg/errors"
)

// Response is the uniform envelope every endpoint answers with.
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorData is the data payload of an error response.
type ErrorData struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// OK writes a success envelope.
func OK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// Fail writes an error envelope with an explicit status.
func Fail(c *gin.Context, status int, message, details string) {
	c.JSON(status, Response{
		Success:   false,
		Message:   message,
		Data:      ErrorData{Error: message, Details: details},
		Timestamp: time.Now().UTC(),
	})
}

// Error maps an error to the envelope, translating AppError codes to
// HTTP statuses. Anything unrecognized is a 500 with the underlying
// message forwarded as details.
func Error(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok {
		Fail(c, statusFor(appErr.Code), appErr.Message, details(appErr))
		return
	}
	Fail(c, http.StatusInternalServerError, "internal server error", err.Error())
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func details(appErr *apperrors.AppError) string {
	if appErr.Err != nil {
		return appErr.Err.Error()
	}
	return ""
}
