package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RoleAdmin 是可以维护主题目录的角色。
const RoleAdmin = "ADMIN"

// AdminAuthMiddleware 检查用户是否具有管理员权限，必须在 AuthMiddleware 之后使用。
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abort(c, http.StatusInternalServerError, "无法获取用户信息")
			return
		}
		if user.Role != RoleAdmin {
			abort(c, http.StatusForbidden, "权限不足，需要管理员权限")
			return
		}
		c.Next()
	}
}
