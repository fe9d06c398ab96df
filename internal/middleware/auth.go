// Package middleware 提供了处理 HTTP 请求的中间件。
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"interview-coach-go/internal/model"
	"interview-coach-go/internal/service"
	"interview-coach-go/pkg/token"
)

const (
	ctxUserKey   = "user"
	ctxClaimsKey = "claims"
)

// BearerToken 从 Authorization 请求头中取出 token，格式不对时返回空字符串。
func BearerToken(c *gin.Context) string {
	const bearerPrefix = "Bearer "
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
}

// AuthMiddleware 创建一个 Gin 中间件，用于 JWT 认证。
// 已登出的 token 会被拒绝；通过后完整的 User 对象存入上下文。
func AuthMiddleware(jwtManager *token.JWTManager, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := BearerToken(c)
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, "请求未包含有效的授权头")
			return
		}

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			abort(c, http.StatusUnauthorized, "无效或已过期的 token")
			return
		}
		if userService.IsTokenRevoked(c.Request.Context(), tokenString) {
			abort(c, http.StatusUnauthorized, "token 已失效，请重新登录")
			return
		}

		user, err := userService.GetProfile(claims.Username)
		if err != nil {
			// 用户可能已被删除
			abort(c, http.StatusUnauthorized, "用户不存在")
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxClaimsKey, claims)
		c.Next()
	}
}

// CurrentUser 返回 AuthMiddleware 注入的用户。
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, exists := c.Get(ctxUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": status, "message": message, "data": nil})
}
