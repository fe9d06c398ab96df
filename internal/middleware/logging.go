package middleware

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"interview-coach-go/pkg/log"
)

const (
	// RequestIDHeader 是请求 ID 的请求/响应头。
	RequestIDHeader = "X-Request-ID"
	ctxRequestIDKey = "requestId"

	maxLoggedBody = 2048
)

// RequestID 为每个请求分配 ID；客户端已带上时沿用。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// bodyLogWriter 用于捕获响应体
type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyLogWriter) Write(b []byte) (int, error) {
	if w.body.Len() < maxLoggedBody {
		w.body.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// RequestLogger 记录请求和响应日志。
// WebSocket 握手不包装 ResponseWriter；认证接口不记录请求体，避免密码进入日志。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		path := c.Request.URL.Path

		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			c.Next()
			log.Infow("WebSocket Session Closed",
				"requestId", c.GetString(ctxRequestIDKey),
				"path", c.FullPath(),
				"duration", time.Since(startTime).String(),
			)
			return
		}

		var requestBody []byte
		if c.Request.Body != nil && !hasCredentials(path) {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		log.Infow("HTTP Request Log",
			"requestId", c.GetString(ctxRequestIDKey),
			"statusCode", c.Writer.Status(),
			"latency", time.Since(startTime).String(),
			"clientIP", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
			"requestBody", truncate(string(requestBody)),
			"responseBody", truncate(blw.body.String()),
		)
	}
}

// 这些路径的请求体包含密码或 token
var credentialPaths = []string{"/api/v1/auth/", "/api/v1/users/register", "/api/v1/users/login"}

func hasCredentials(path string) bool {
	for _, p := range credentialPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func truncate(s string) string {
	if len(s) <= maxLoggedBody {
		return s
	}
	return s[:maxLoggedBody] + "..."
}
