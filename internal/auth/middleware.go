package auth

import (
	"errors"
	"net/http"
	"strings"

	"voice-dashboard/internal/apperr"
	"voice-dashboard/pkg/logger"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// BearerToken returns the token from the Authorization header, or "".
func BearerToken(c *gin.Context) string {
	raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
	// The scheme is case-insensitive.
	if len(raw) < len(bearerPrefix) || !strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(raw[len(bearerPrefix):])
}

// RequireSession authenticates the bearer token against the session table
// and injects identity into the request context.
// 401 when no token is sent, 403 when the token or its session is invalid.
func RequireSession(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := svc.Authenticate(c.Request.Context(), BearerToken(c))
		if err != nil {
			var msg *apperr.Message
			switch {
			case errors.Is(err, apperr.ErrUnauthenticated) && errors.As(err, &msg):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg.Text})
			case errors.Is(err, apperr.ErrInvalidToken) && errors.As(err, &msg):
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msg.Text})
			default:
				logger.FromGin(c).Error("session lookup failed", "err", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
			return
		}
		attach(c, id)
		c.Next()
	}
}

// OptionalSession attaches identity when the token is valid and otherwise
// continues anonymously.
func OptionalSession(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := BearerToken(c); tok != "" {
			if id, err := svc.Authenticate(c.Request.Context(), tok); err == nil {
				attach(c, id)
			}
		}
		c.Next()
	}
}

func attach(c *gin.Context, id Identity) {
	c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))

	// Also store on gin context for handler convenience.
	c.Set("user_id", id.UserID)
	c.Set("email", id.Email)
}
