package api

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Spok95/labsched/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	ctxRequestID    = "request_id"
	ctxPrincipal    = "principal"
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(ctxRequestID),
		)
	}
}

func (h *handler) authenticate(c *gin.Context) {
	var raw string
	if parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		raw = strings.TrimSpace(parts[1])
	}
	// downloads opened from a link cannot set headers
	if raw == "" {
		raw = c.Query("token")
	}
	if raw == "" {
		h.fail(c, auth.ErrUnauthenticated)
		return
	}
	p, err := h.tokens.Parse(raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Set(ctxPrincipal, p)
	c.Next()
}

func principal(c *gin.Context) auth.Principal {
	p, _ := c.MustGet(ctxPrincipal).(auth.Principal)
	return p
}
