package handlers

import (
	"net/http"
	"strings"
	"time"

	"SPX-VAL/internal/services"
	"SPX-VAL/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	SessionHeader = "X-Session-ID"
	RequestHeader = "X-Request-ID"

	contextSession   = "session"
	contextRequestID = "request_id"
)

// RequestLogger logs one line per request after it completes.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.New().String()
		c.Set(contextRequestID, requestID)
		c.Header(RequestHeader, requestID)

		c.Next()

		if strings.HasPrefix(c.Request.URL.Path, "/api/v1/objects/") && c.Writer.Status() < 400 {
			return
		}

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if username := c.GetString(services.ContextUsername); username != "" {
			fields = append(fields, zap.String("username", username))
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Error("HTTP Request", fields...)
		case c.Writer.Status() >= 400:
			logger.Warn("HTTP Request", fields...)
		default:
			logger.Info("HTTP Request", fields...)
		}
	}
}

func RecoverPanic(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered",
					zap.String("request_id", c.GetString(contextRequestID)),
					zap.Any("error", err),
					zap.Stack("stack"))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// RequireSession resolves the X-Session-ID header to a live session.
func RequireSession(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(SessionHeader)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + SessionHeader + " header"})
			return
		}
		sess, err := sessions.Get(id)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(contextSession, sess)
		c.Set(services.ContextUsername, sess.User.Username)
		c.Set(services.ContextSessionID, sess.ID)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(contextSession).(*session.Session)
}
