package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck 探测一个依赖是否可用。
type HealthCheck func(ctx context.Context) error

// HealthHandler 汇总各依赖的探测结果。
type HealthHandler struct {
	checks map[string]HealthCheck
}

// NewHealthHandler 创建一个新的 HealthHandler 实例。
func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health 任一依赖失败时返回 503。
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, healthy := gin.H{}, true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}
	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"code": code, "message": http.StatusText(code), "data": status})
}
