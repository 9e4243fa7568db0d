package router

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/metrics"
	"github.com/mamadbah2/stockroom/internal/server/handlers"
	"github.com/mamadbah2/stockroom/internal/service/auth"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	maxRequestIDLen = 64
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// sessionMiddleware resolves the caller's session for every request.
func sessionMiddleware(resolver auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		handlers.SetSession(c, resolver.Resolve(handlers.BearerToken(c)))
		c.Next()
	}
}

// requireSession admits authenticated sessions. A password recovery session
// is only admitted where allowRecovery is set.
func requireSession(allowRecovery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch handlers.CurrentSession(c).State {
		case auth.StateAuthenticated:
			c.Next()
		case auth.StatePasswordRecovery:
			if allowRecovery {
				c.Next()
				return
			}
			handlers.Abort(c, http.StatusForbidden, handlers.CodePasswordRecoveryRequired, "set a new password to continue")
		default:
			handlers.Abort(c, http.StatusUnauthorized, handlers.CodeUnauthenticated, "sign in required")
		}
	}
}
