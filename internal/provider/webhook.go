package provider

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"voice-dashboard/internal/apperr"
	"voice-dashboard/pkg/logger"

	"github.com/gin-gonic/gin"
)

const headerWebhookSecret = "X-Webhook-Secret"

// StatusSink applies a provider status event to the stored call.
type StatusSink interface {
	ApplyStatusEvent(ctx context.Context, ev StatusEvent) error
}

// WebhookHandler converts the provider's status callback to a StatusEvent
// and hands it to the sink. No business logic here.
type WebhookHandler struct {
	Sink StatusSink

	// Secret, when set, must match the X-Webhook-Secret header.
	Secret string
}

func (h WebhookHandler) HandleCallStatus(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Sink == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "webhook sink not configured"})
		return
	}
	if h.Secret != "" {
		got := c.GetHeader(headerWebhookSecret)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.Secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
			return
		}
	}

	var ev StatusEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		log.Warn("provider webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	ev.CallID = strings.TrimSpace(ev.CallID)
	if ev.CallID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_id required"})
		return
	}

	if err := h.Sink.ApplyStatusEvent(c.Request.Context(), ev); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// Unknown to us; acknowledge so the provider stops retrying.
			log.Info("provider webhook for unknown call", "call_id", ev.CallID)
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		log.Error("provider webhook apply failed", "call_id", ev.CallID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
