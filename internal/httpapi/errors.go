package httpapi

import (
	"errors"
	"net/http"

	"voice-dashboard/internal/apperr"
	"voice-dashboard/internal/provider"
	"voice-dashboard/pkg/logger"

	"github.com/gin-gonic/gin"
)

const internalErrorMessage = "internal server error"

// writeError maps a service error onto the response envelope
// {"error": msg, "details"?: [...]}. Unknown errors are logged and hidden.
func writeError(c *gin.Context, err error) {
	status, body := classify(err, "resource")
	if status == http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", "err", err)
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}

// writeResourceError is writeError with a resource-specific not found message.
func writeResourceError(c *gin.Context, err error, resource string) {
	status, body := classify(err, resource)
	if status == http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", "resource", resource, "err", err)
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}

func classify(err error, resource string) (int, gin.H) {
	var msg *apperr.Message
	text := func(fallback string) string {
		if errors.As(err, &msg) && msg.Text != "" {
			return msg.Text
		}
		return fallback
	}

	switch {
	case errors.Is(err, apperr.ErrValidation):
		body := gin.H{"error": "validation failed"}
		if d := apperr.Details(err); len(d) > 0 {
			body["details"] = d
		}
		return http.StatusBadRequest, body
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized, gin.H{"error": text("authentication required")}
	case errors.Is(err, apperr.ErrInvalidToken):
		return http.StatusForbidden, gin.H{"error": text("invalid or expired token")}
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, gin.H{"error": text(resource + " not found")}
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, gin.H{"error": text("already exists")}
	case errors.Is(err, apperr.ErrRateLimited):
		return http.StatusTooManyRequests, gin.H{"error": text("too many requests")}
	case errors.Is(err, apperr.ErrProvider):
		var apiErr *provider.APIError
		if errors.As(err, &apiErr) {
			return http.StatusBadGateway, gin.H{"error": apiErr.Message}
		}
		return http.StatusBadGateway, gin.H{"error": text("voice provider request failed")}
	default:
		return http.StatusInternalServerError, gin.H{"error": internalErrorMessage}
	}
}

func invalidJSON(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
}
