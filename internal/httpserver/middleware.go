package httpserver

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"phasetrack/internal/util"
	"phasetrack/pkg/metrics"
)

// IdentityMiddleware extracts the actor's display name from the bearer token
// when one is present. Anonymous requests proceed; authorship falls back to
// the "System" default downstream.
func IdentityMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token != "" {
			if userID, name, err := util.ParseJWT(token, jwtSecret); err == nil {
				c.Set("user_id", userID)
				c.Set("actor", name)
			}
		}

		c.Next()
	}
}

// RequestLogMiddleware logs every request with its latency.
func RequestLogMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)

		metrics.RecordHTTPRequestDuration(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(c.Writer.Status()),
			latency,
		)
	}
}
