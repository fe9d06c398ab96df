// Package handler 包含了处理 HTTP 请求和 WebSocket 连接的控制器逻辑。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"interview-coach-go/internal/middleware"
	"interview-coach-go/internal/model"
	"interview-coach-go/pkg/errs"
)

// writeError 把 service 层的错误写成统一的 {code, message, data} 响应。
func writeError(c *gin.Context, err error) {
	status := errs.HTTPStatus(err)
	c.JSON(status, gin.H{"code": status, "message": errs.Message(err), "data": nil})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": message, "data": nil})
}

// mustUser 取出 AuthMiddleware 注入的用户；取不到时直接写 500。
func mustUser(c *gin.Context) (*model.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "无法获取用户信息", "data": nil})
	}
	return user, ok
}
