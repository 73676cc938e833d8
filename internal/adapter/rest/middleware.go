package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/simaogato/moneyjar/internal/auth"
	"github.com/simaogato/moneyjar/internal/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	userIDKey       = "userID"
)

// RequestLogger attaches a request-scoped logger to the context and logs every request
// once it completes
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		reqLog := log.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLog))

		c.Next()

		status := c.Writer.Status()
		event := reqLog.Info()
		if status >= http.StatusInternalServerError {
			event = reqLog.Error()
		} else if status >= http.StatusBadRequest {
			event = reqLog.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Str("user_id", c.GetString(userIDKey)).
			Msg("request")
	}
}

// AuthMiddleware verifies the bearer token and stores its user id in the context.
// The token may also be passed as ?token= for clients that cannot set headers.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if header := c.GetHeader("Authorization"); header != "" {
			t, err := auth.BearerToken(header)
			if err != nil {
				fail(c, http.StatusUnauthorized, CodeAuth, err.Error())
				return
			}
			tokenStr = t
		}
		if tokenStr == "" {
			fail(c, http.StatusUnauthorized, CodeAuth, "missing bearer token")
			return
		}

		userID, err := auth.ParseToken(jwtSecret, tokenStr)
		if err != nil {
			fail(c, http.StatusUnauthorized, CodeAuth, "invalid or expired token")
			return
		}

		c.Set(userIDKey, userID)
		c.Request = c.Request.WithContext(auth.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

// currentUser returns the user id set by AuthMiddleware
func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
