package respond

import (
	"github.com/gin-gonic/gin"

	"cvpulse-backend/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Type       string      `json:"type"`
	Message    string      `json:"message"`
	RetryAfter int         `json:"retryAfter,omitempty"`
	Details    interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, errType, message string, details interface{}) {
	ErrorWithRetry(c, status, errType, message, 0, details)
}

// ErrorWithRetry sends a standardized error response carrying a retry hint in
// seconds. A zero retryAfter omits the field.
func ErrorWithRetry(c *gin.Context, status int, errType, message string, retryAfter int, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"type":       errType,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	} else {
		fields["client_ip"] = c.ClientIP()
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Type:       errType,
			Message:    message,
			RetryAfter: retryAfter,
			Details:    details,
		},
	})
}
