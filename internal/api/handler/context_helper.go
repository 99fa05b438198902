package handler

import (
	"github.com/gin-gonic/gin"

	"absenta/backend/internal/api/middleware"
	"absenta/backend/internal/service"
	"absenta/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.ContextUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetIdentity 提取 JWTAuth 注入的请求方身份
func MustGetIdentity(c *gin.Context) (service.Identity, bool) {
	v, exists := c.Get(middleware.ContextIdentity)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return service.Identity{}, false
	}
	identity, ok := v.(service.Identity)
	if !ok || identity.UserID == "" {
		response.Unauthorized(c, 10002, "未认证")
		return service.Identity{}, false
	}
	return identity, true
}
